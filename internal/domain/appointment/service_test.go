package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// -- Mock Repositories --

type mockSlotRepo struct {
	items map[uuid.UUID]*Slot
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{items: make(map[uuid.UUID]*Slot)}
}

func (m *mockSlotRepo) InsertBatch(_ context.Context, slots []*Slot) (int, error) {
	n := 0
	for _, s := range slots {
		dup := false
		for _, existing := range m.items {
			if existing.Key() == s.Key() {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		m.items[s.ID] = s
		n++
	}
	return n, nil
}

func (m *mockSlotRepo) ExistingStarts(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]SlotKey, error) {
	lo, hi := timeofday.DateKey(from), timeofday.DateKey(to)
	var keys []SlotKey
	for _, s := range m.items {
		if s.DoctorID == doctorID && s.Date >= lo && s.Date < hi {
			keys = append(keys, s.Key())
		}
	}
	return keys, nil
}

func (m *mockSlotRepo) Exists(_ context.Context, doctorID uuid.UUID, date time.Time, start timeofday.TimeOfDay) (bool, error) {
	key := SlotKey{DoctorID: doctorID, Date: timeofday.DateKey(date), Start: start}
	for _, s := range m.items {
		if s.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("slot %s not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *mockSlotRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSlotRepo) Update(_ context.Context, s *Slot) error {
	if _, ok := m.items[s.ID]; !ok {
		return apperrors.NotFound("slot %s not found", s.ID)
	}
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockSlotRepo) Search(_ context.Context, f SlotFilter, _, _ int) ([]*Slot, int, error) {
	var out []*Slot
	for _, s := range m.items {
		if f.DoctorID != nil && s.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.AvailableAt != nil && s.CheckBookable(*f.AvailableAt) != nil {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

type mockBookingRepo struct {
	items map[uuid.UUID]*Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{items: make(map[uuid.UUID]*Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, b *Booking) error {
	b.ID = uuid.New()
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("booking %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status BookingStatus) error {
	b, ok := m.items[id]
	if !ok {
		return apperrors.NotFound("booking %s not found", id)
	}
	b.Status = status
	return nil
}

func (m *mockBookingRepo) SetStatusForSlot(_ context.Context, slotID uuid.UUID, from, to BookingStatus) (int, error) {
	n := 0
	for _, b := range m.items {
		if b.SlotID == slotID && b.Status == from {
			b.Status = to
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) ListBySlot(_ context.Context, slotID uuid.UUID) ([]*Booking, error) {
	var out []*Booking
	for _, b := range m.items {
		if b.SlotID == slotID {
			out = append(out, b)
		}
	}
	return out, nil
}

// -- Helpers --

var testNow = time.Date(2024, 1, 6, 7, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	slots    *mockSlotRepo
	bookings *mockBookingRepo
}

func newFixture() *fixture {
	f := &fixture{slots: newMockSlotRepo(), bookings: newMockBookingRepo()}
	f.svc = NewService(f.slots, f.bookings, db.NoTx)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) addSlot(capacity int) *Slot {
	s := &Slot{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		Date:      "2024-01-06",
		StartTime: timeofday.MustParse("08:00"),
		EndTime:   timeofday.MustParse("08:30"),
		Capacity:  capacity,
		Status:    SlotOpen,
		ExpireAt:  time.Date(2024, 1, 6, 8, 30, 0, 0, time.UTC),
	}
	f.slots.items[s.ID] = s
	return s
}

func patient() *Booking {
	return &Booking{PatientName: "Reza Mohammadi", PatientPhone: "09121234567"}
}

// -- Tests --

func TestBook_SingleSeat(t *testing.T) {
	f := newFixture()
	slot := f.addSlot(1)
	b := patient()

	if err := f.svc.Book(context.Background(), slot.ID, b); err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	if b.ID == uuid.Nil || b.Status != BookingBooked || b.SlotID != slot.ID {
		t.Errorf("unexpected booking %+v", b)
	}
	got := f.slots.items[slot.ID]
	if got.Status != SlotBooked || got.Reserved != 1 {
		t.Errorf("expected booked slot with 1 reservation, got %s/%d", got.Status, got.Reserved)
	}

	if err := f.svc.Book(context.Background(), slot.ID, patient()); !apperrors.IsConflict(err) {
		t.Errorf("expected conflict on full slot, got %v", err)
	}
}

func TestBook_SharedSlotStaysOpenUntilFull(t *testing.T) {
	f := newFixture()
	slot := f.addSlot(3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.svc.Book(ctx, slot.ID, patient()); err != nil {
			t.Fatalf("Book() #%d error: %v", i+1, err)
		}
	}
	if got := f.slots.items[slot.ID]; got.Status != SlotOpen || got.Reserved != 2 {
		t.Errorf("expected open slot with 2 reservations, got %s/%d", got.Status, got.Reserved)
	}
	if err := f.svc.Book(ctx, slot.ID, patient()); err != nil {
		t.Fatalf("Book() #3 error: %v", err)
	}
	if got := f.slots.items[slot.ID]; got.Status != SlotBooked {
		t.Errorf("expected booked slot, got %s", got.Status)
	}
}

func TestBook_Expired(t *testing.T) {
	f := newFixture()
	slot := f.addSlot(1)
	f.svc.now = func() time.Time { return slot.ExpireAt.Add(time.Minute) }

	if err := f.svc.Book(context.Background(), slot.ID, patient()); !apperrors.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
	if len(f.bookings.items) != 0 {
		t.Error("no booking should be stored")
	}
}

func TestBook_Validation(t *testing.T) {
	f := newFixture()
	slot := f.addSlot(1)
	if err := f.svc.Book(context.Background(), slot.ID, &Booking{}); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBook_UnknownSlot(t *testing.T) {
	f := newFixture()
	if err := f.svc.Book(context.Background(), uuid.New(), patient()); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCancelBooking_ReopensSlot(t *testing.T) {
	f := newFixture()
	slot := f.addSlot(1)
	ctx := context.Background()
	b := patient()
	if err := f.svc.Book(ctx, slot.ID, b); err != nil {
		t.Fatalf("Book() error: %v", err)
	}

	cancelled, err := f.svc.CancelBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("CancelBooking() error: %v", err)
	}
	if cancelled.Status != BookingCancelled {
		t.Errorf("expected cancelled booking, got %s", cancelled.Status)
	}
	if got := f.slots.items[slot.ID]; got.Status != SlotOpen || got.Reserved != 0 {
		t.Errorf("expected reopened slot, got %s/%d", got.Status, got.Reserved)
	}

	if _, err := f.svc.CancelBooking(ctx, b.ID); !apperrors.IsConflict(err) {
		t.Errorf("expected conflict on second cancel, got %v", err)
	}
}

func TestCancelSlot_CancelsBookings(t *testing.T) {
	f := newFixture()
	slot := f.addSlot(2)
	ctx := context.Background()
	b := patient()
	if err := f.svc.Book(ctx, slot.ID, b); err != nil {
		t.Fatalf("Book() error: %v", err)
	}

	got, err := f.svc.CancelSlot(ctx, slot.ID)
	if err != nil {
		t.Fatalf("CancelSlot() error: %v", err)
	}
	if got.Status != SlotCancelled || got.Reserved != 0 {
		t.Errorf("unexpected slot %s/%d", got.Status, got.Reserved)
	}
	if f.bookings.items[b.ID].Status != BookingCancelled {
		t.Errorf("expected booking to be cancelled, got %s", f.bookings.items[b.ID].Status)
	}

	if _, err := f.svc.CompleteSlot(ctx, slot.ID); !apperrors.IsConflict(err) {
		t.Errorf("cancelled slot cannot complete, got %v", err)
	}
}

func TestCompleteSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	empty := f.addSlot(1)
	if _, err := f.svc.CompleteSlot(ctx, empty.ID); !apperrors.IsConflict(err) {
		t.Errorf("expected conflict for slot without bookings, got %v", err)
	}

	slot := f.addSlot(1)
	b := patient()
	if err := f.svc.Book(ctx, slot.ID, b); err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	got, err := f.svc.CompleteSlot(ctx, slot.ID)
	if err != nil {
		t.Fatalf("CompleteSlot() error: %v", err)
	}
	if got.Status != SlotCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if f.bookings.items[b.ID].Status != BookingCompleted {
		t.Errorf("expected completed booking, got %s", f.bookings.items[b.ID].Status)
	}
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	open := f.addSlot(1)
	full := f.addSlot(1)
	if err := f.svc.Book(ctx, full.ID, patient()); err != nil {
		t.Fatalf("Book() error: %v", err)
	}

	items, total, err := f.svc.AvailableSlots(ctx, SlotFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if total != 1 || items[0].ID != open.ID {
		t.Errorf("expected only the open slot, got %d", total)
	}
}

func TestSearchSlots_UnknownStatus(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.SearchSlots(context.Background(), SlotFilter{Status: "pending"}, 20, 0)
	if !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
