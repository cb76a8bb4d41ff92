package slotgen

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// maxManualDays caps a single manual request.
const maxManualDays = 366

// manualRunTimeout bounds a manual run. The run is detached from the request
// context so the HTTP request timeout cannot roll back a long window.
const manualRunTimeout = 30 * time.Minute

type Handler struct {
	runner *Runner
}

func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/slot-generation", auth.RequireRole(auth.RoleAdmin))
	g.POST("/runs", h.TriggerRun)
	g.GET("/runs/last", h.LastRun)
}

type runRequest struct {
	// From is YYYY-MM-DD; today when empty.
	From string `json:"from"`
	Days int    `json:"days"`
}

// TriggerRun generates synchronously and reports the count. A failed run
// answers 500 with the partial count in the report.
func (h *Handler) TriggerRun(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	from := h.runner.Today()
	if req.From != "" {
		d, err := timeofday.ParseDate(req.From, h.runner.loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		from = d
	}
	days := req.Days
	if days == 0 {
		days = h.runner.WindowDays()
	}
	if days < 1 || days > maxManualDays {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be between 1 and 366")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), manualRunTimeout)
	defer cancel()

	report, err := h.runner.Run(ctx, from, days, TriggerManual)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, report)
	case errors.Is(err, ErrRunInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case apperrors.IsValidation(err):
		return apperrors.ToHTTP(err)
	default:
		return c.JSON(http.StatusInternalServerError, report)
	}
}

func (h *Handler) LastRun(c echo.Context) error {
	report, ok := h.runner.Last()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no slot generation run yet")
	}
	return c.JSON(http.StatusOK, report)
}
