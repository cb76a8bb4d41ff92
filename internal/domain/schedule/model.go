package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// Template is a doctor's recurring weekly shift. The slot generator
// partitions [StartTime, EndTime) into SlotDurationMinutes slots on every
// matching weekday.
type Template struct {
	ID                  uuid.UUID           `json:"id"`
	DoctorID            uuid.UUID           `json:"doctor_id"`
	ClinicID            *uuid.UUID          `json:"clinic_id,omitempty"`
	ServiceID           *uuid.UUID          `json:"service_id,omitempty"`
	DayOfWeek           int                 `json:"day_of_week"`
	StartTime           timeofday.TimeOfDay `json:"start_time"`
	EndTime             timeofday.TimeOfDay `json:"end_time"`
	SlotDurationMinutes int                 `json:"slot_duration_minutes"`
	Capacity            int                 `json:"capacity"`
	Active              bool                `json:"active"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (t *Template) Validate() error {
	switch {
	case t.DoctorID == uuid.Nil:
		return apperrors.Validation("doctor_id is required")
	case t.DayOfWeek < 0 || t.DayOfWeek > 6:
		return apperrors.Validation("day_of_week must be between 0 (Saturday) and 6 (Friday), got %d", t.DayOfWeek)
	case !t.StartTime.Valid() || !t.EndTime.Valid():
		return apperrors.Validation("shift times must be within the day")
	case t.StartTime >= t.EndTime:
		return apperrors.Validation("start_time %s must be before end_time %s", t.StartTime, t.EndTime)
	case t.SlotDurationMinutes <= 0:
		return apperrors.Validation("slot_duration_minutes must be positive, got %d", t.SlotDurationMinutes)
	case t.Capacity < 1:
		return apperrors.Validation("capacity must be at least 1, got %d", t.Capacity)
	}
	return nil
}

// Overlaps reports whether both templates cover a common minute on the
// same weekday.
func (t *Template) Overlaps(o *Template) bool {
	return t.DayOfWeek == o.DayOfWeek && t.StartTime < o.EndTime && o.StartTime < t.EndTime
}

// SlotCount is the number of whole slots the shift yields.
func (t *Template) SlotCount() int {
	if t.SlotDurationMinutes <= 0 || t.EndTime <= t.StartTime {
		return 0
	}
	return (t.EndTime.Minutes() - t.StartTime.Minutes()) / t.SlotDurationMinutes
}
