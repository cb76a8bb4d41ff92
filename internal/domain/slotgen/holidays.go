package slotgen

import (
	"context"
	"time"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/holiday"
)

// HolidaySource loads the closed days of a window once per run.
type HolidaySource interface {
	LoadSet(ctx context.Context, from, to time.Time, loc *time.Location) (*holiday.Set, error)
}
