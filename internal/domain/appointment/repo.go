package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type SlotRepository interface {
	// InsertBatch stores slots skipping any whose key already exists and
	// returns how many rows were written.
	InsertBatch(ctx context.Context, slots []*Slot) (int, error)
	// ExistingStarts returns the keys of the doctor's slots dated in [from, to).
	ExistingStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]SlotKey, error)
	Exists(ctx context.Context, doctorID uuid.UUID, date time.Time, start timeofday.TimeOfDay) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error)
	Update(ctx context.Context, s *Slot) error
	Search(ctx context.Context, f SlotFilter, limit, offset int) ([]*Slot, int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error
	// SetStatusForSlot moves every booking of the slot in status from to to.
	SetStatusForSlot(ctx context.Context, slotID uuid.UUID, from, to BookingStatus) (int, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*Booking, error)
}
