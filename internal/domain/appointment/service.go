package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

type Service struct {
	slots    SlotRepository
	bookings BookingRepository
	runTx    db.Runner
	now      func() time.Time
}

func NewService(slots SlotRepository, bookings BookingRepository, runTx db.Runner) *Service {
	return &Service{slots: slots, bookings: bookings, runTx: runTx, now: time.Now}
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Service) SearchSlots(ctx context.Context, f SlotFilter, limit, offset int) ([]*Slot, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperrors.Validation("unknown slot status %q", f.Status)
	}
	return s.slots.Search(ctx, f, limit, offset)
}

// AvailableSlots lists slots that can take a booking right now.
func (s *Service) AvailableSlots(ctx context.Context, f SlotFilter, limit, offset int) ([]*Slot, int, error) {
	now := s.now()
	f.AvailableAt = &now
	f.Status = ""
	return s.slots.Search(ctx, f, limit, offset)
}

// Book reserves one seat of the slot for the patient in b. The slot turns
// booked once every seat is taken.
func (s *Service) Book(ctx context.Context, slotID uuid.UUID, b *Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if err := slot.CheckBookable(s.now()); err != nil {
			return err
		}
		slot.Reserved++
		if slot.Reserved == slot.Capacity {
			slot.Status = SlotBooked
		}
		if err := s.slots.Update(ctx, slot); err != nil {
			return err
		}
		b.SlotID = slot.ID
		b.Status = BookingBooked
		return s.bookings.Create(ctx, b)
	})
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, slotID uuid.UUID) ([]*Booking, error) {
	if _, err := s.slots.GetByID(ctx, slotID); err != nil {
		return nil, err
	}
	return s.bookings.ListBySlot(ctx, slotID)
}

// CancelBooking frees the booking's seat. A full slot reopens.
func (s *Service) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var booking *Booking
	err := s.runTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != BookingBooked {
			return apperrors.Conflict("booking is already %s", b.Status)
		}
		slot, err := s.slots.GetForUpdate(ctx, b.SlotID)
		if err != nil {
			return err
		}
		if slot.Reserved > 0 {
			slot.Reserved--
		}
		if slot.Status == SlotBooked {
			slot.Status = SlotOpen
		}
		if err := s.slots.Update(ctx, slot); err != nil {
			return err
		}
		if err := s.bookings.UpdateStatus(ctx, b.ID, BookingCancelled); err != nil {
			return err
		}
		b.Status = BookingCancelled
		booking = b
		return nil
	})
	return booking, err
}

// CancelSlot withdraws the slot and cancels its active bookings.
func (s *Service) CancelSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	return s.finishSlot(ctx, slotID, SlotCancelled, BookingCancelled)
}

// CompleteSlot marks the visit done. An open slot can be completed only
// when somebody booked it.
func (s *Service) CompleteSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	return s.finishSlot(ctx, slotID, SlotCompleted, BookingCompleted)
}

func (s *Service) finishSlot(ctx context.Context, slotID uuid.UUID, next SlotStatus, bookingStatus BookingStatus) (*Slot, error) {
	var slot *Slot
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		slot, err = s.slots.GetForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if !slot.Status.CanTransition(next) {
			return apperrors.Conflict("slot cannot move from %s to %s", slot.Status, next)
		}
		if next == SlotCompleted && slot.Reserved == 0 {
			return apperrors.Conflict("slot has no bookings to complete")
		}
		if _, err := s.bookings.SetStatusForSlot(ctx, slot.ID, BookingBooked, bookingStatus); err != nil {
			return err
		}
		slot.Status = next
		if next == SlotCancelled {
			slot.Reserved = 0
		}
		return s.slots.Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}
