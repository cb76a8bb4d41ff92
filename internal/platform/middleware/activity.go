package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
)

const apiPrefix = "/api/v1/"

// ActivityEntry describes one authenticated API call.
type ActivityEntry struct {
	UserID     string
	Roles      []string
	Action     string // read, create, update, delete
	Resource   string
	ResourceID string
	Method     string
	Path       string
	StatusCode int
	RequestID  string
	IPAddress  string
	UserAgent  string
	Timestamp  time.Time
}

// ActivityRecorder persists activity entries.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, entry ActivityEntry) error
}

// ActivityRecorderFunc is a function adapter for ActivityRecorder.
type ActivityRecorderFunc func(ctx context.Context, entry ActivityEntry) error

func (f ActivityRecorderFunc) RecordActivity(ctx context.Context, entry ActivityEntry) error {
	return f(ctx, entry)
}

// Activity records every /api/v1/* call after the handler ran. It always
// emits a structured "activity" log event; when recorder is non-nil the entry
// is persisted as well. Recorder failures are logged and never fail the
// request.
func Activity(logger zerolog.Logger, recorder ActivityRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, apiPrefix) {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			entry := ActivityEntry{
				UserID:     auth.UserIDFromContext(ctx),
				Roles:      auth.RolesFromContext(ctx),
				Action:     methodToAction(req.Method),
				Method:     req.Method,
				Path:       path,
				StatusCode: responseStatus(c, err),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Timestamp:  time.Now().UTC(),
			}
			entry.Resource, entry.ResourceID = splitResource(path)
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if recorder != nil {
				recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				if recErr := recorder.RecordActivity(recCtx, entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record activity")
				}
				cancel()
			}

			logger.Info().
				Str("type", "activity").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("roles", entry.Roles).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Int("status", entry.StatusCode).
				Msg("activity")

			return err
		}
	}
}

func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResource extracts the resource collection and, when the next segment
// is an identifier, its id.
//
//	/api/v1/doctors                  -> doctors, ""
//	/api/v1/slots/<uuid>/bookings    -> slots, <uuid>
//	/api/v1/chat/messages/42/read    -> chat, ""
func splitResource(path string) (string, string) {
	segments := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown", ""
	}
	if len(segments) > 1 {
		if _, err := uuid.Parse(segments[1]); err == nil {
			return segments[0], segments[1]
		}
	}
	return segments[0], ""
}
