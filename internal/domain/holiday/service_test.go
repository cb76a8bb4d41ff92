package holiday

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type mockHolidayRepo struct {
	items map[uuid.UUID]*Holiday
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{items: make(map[uuid.UUID]*Holiday)}
}

func (m *mockHolidayRepo) Create(_ context.Context, h *Holiday) error {
	for _, existing := range m.items {
		if existing.Date == h.Date {
			return apperrors.Conflict("a holiday is already registered on %s", h.Date)
		}
	}
	h.ID = uuid.New()
	m.items[h.ID] = h
	return nil
}

func (m *mockHolidayRepo) GetByID(_ context.Context, id uuid.UUID) (*Holiday, error) {
	h, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("holiday %s not found", id)
	}
	return h, nil
}

func (m *mockHolidayRepo) Update(_ context.Context, h *Holiday) error {
	if _, ok := m.items[h.ID]; !ok {
		return apperrors.NotFound("holiday %s not found", h.ID)
	}
	m.items[h.ID] = h
	return nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperrors.NotFound("holiday %s not found", id)
	}
	delete(m.items, id)
	return nil
}

func (m *mockHolidayRepo) ListBetween(_ context.Context, from, to time.Time) ([]*Holiday, error) {
	lo, hi := timeofday.DateKey(from), timeofday.DateKey(to)
	var out []*Holiday
	for _, h := range m.items {
		if h.Date >= lo && h.Date < hi {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func TestCreateHoliday(t *testing.T) {
	svc := NewService(newMockHolidayRepo())
	h := &Holiday{Date: " 2024-01-06 ", Name: "Closed"}
	if err := svc.CreateHoliday(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Date != "2024-01-06" {
		t.Errorf("expected normalised date, got %q", h.Date)
	}
}

func TestCreateHoliday_Validation(t *testing.T) {
	svc := NewService(newMockHolidayRepo())
	tests := []Holiday{
		{Date: "2024-01-06"},
		{Date: "06/01/2024", Name: "Closed"},
		{Date: "2024-02-30", Name: "Closed"},
	}
	for _, h := range tests {
		h := h
		if err := svc.CreateHoliday(context.Background(), &h); !apperrors.IsValidation(err) {
			t.Errorf("%+v: expected validation error, got %v", h, err)
		}
	}
}

func TestCreateHoliday_DuplicateDate(t *testing.T) {
	svc := NewService(newMockHolidayRepo())
	ctx := context.Background()
	if err := svc.CreateHoliday(ctx, &Holiday{Date: "2024-03-20", Name: "Nowruz"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.CreateHoliday(ctx, &Holiday{Date: "2024-03-20", Name: "Nowruz again"})
	if !apperrors.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestLoadSet(t *testing.T) {
	svc := NewService(newMockHolidayRepo())
	ctx := context.Background()
	for _, d := range []string{"2024-01-05", "2024-01-06", "2024-01-20"} {
		if err := svc.CreateHoliday(ctx, &Holiday{Date: d, Name: "Closed"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	from := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	set, err := svc.LoadSet(ctx, from, from.AddDate(0, 0, 7), time.UTC)
	if err != nil {
		t.Fatalf("LoadSet() error: %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("expected only the in-window holiday, got %d", set.Len())
	}
	if !set.IsHoliday(from.Add(9 * time.Hour)) {
		t.Error("expected 2024-01-06 to be a holiday")
	}
}

func TestListBetween_InvalidRange(t *testing.T) {
	svc := NewService(newMockHolidayRepo())
	d := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ListBetween(context.Background(), d, d); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
