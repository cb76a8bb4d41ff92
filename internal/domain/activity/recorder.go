package activity

import (
	"context"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/middleware"
)

// Recorder persists entries produced by middleware.Activity.
type Recorder struct {
	repo Repository
}

var _ middleware.ActivityRecorder = (*Recorder)(nil)

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) RecordActivity(ctx context.Context, in middleware.ActivityEntry) error {
	return r.repo.Insert(ctx, &Entry{
		UserID:     in.UserID,
		Roles:      in.Roles,
		Action:     in.Action,
		Resource:   in.Resource,
		ResourceID: in.ResourceID,
		Method:     in.Method,
		Path:       in.Path,
		StatusCode: in.StatusCode,
		RequestID:  in.RequestID,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		CreatedAt:  in.Timestamp,
	})
}
