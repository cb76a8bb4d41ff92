package schedule

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// -- Mock Repository --

type mockTemplateRepo struct {
	items map[uuid.UUID]*Template
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{items: make(map[uuid.UUID]*Template)}
}

func (m *mockTemplateRepo) Create(_ context.Context, t *Template) error {
	t.ID = uuid.New()
	m.items[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*Template, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("schedule template %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, t *Template) error {
	if _, ok := m.items[t.ID]; !ok {
		return apperrors.NotFound("schedule template %s not found", t.ID)
	}
	m.items[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperrors.NotFound("schedule template %s not found", id)
	}
	delete(m.items, id)
	return nil
}

func (m *mockTemplateRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Template, error) {
	var out []*Template
	for _, t := range m.items {
		if t.DoctorID == doctorID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTemplateRepo) ListActive(_ context.Context) ([]*Template, error) {
	var out []*Template
	for _, t := range m.items {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockTemplateRepo) {
	repo := newMockTemplateRepo()
	return NewService(repo, db.NoTx), repo
}

func shift(doctorID uuid.UUID, day int, start, end string) *Template {
	return &Template{
		DoctorID:            doctorID,
		DayOfWeek:           day,
		StartTime:           timeofday.MustParse(start),
		EndTime:             timeofday.MustParse(end),
		SlotDurationMinutes: 15,
		Capacity:            1,
	}
}

func TestCreateTemplate(t *testing.T) {
	svc, _ := newTestService()
	tpl := shift(uuid.New(), 0, "08:00", "12:00")
	if err := svc.CreateTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.ID == uuid.Nil || !tpl.Active {
		t.Errorf("expected active template with id, got %+v", tpl)
	}
}

func TestCreateTemplate_Invalid(t *testing.T) {
	svc, repo := newTestService()
	err := svc.CreateTemplate(context.Background(), shift(uuid.New(), 0, "12:00", "08:00"))
	if !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("invalid template must not be stored")
	}
}

func TestCreateTemplate_SecondShiftSameDay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()
	if err := svc.CreateTemplate(ctx, shift(doctor, 2, "08:00", "12:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.CreateTemplate(ctx, shift(doctor, 2, "16:00", "20:00")); err != nil {
		t.Fatalf("afternoon shift rejected: %v", err)
	}
	templates, _ := svc.ListByDoctor(ctx, doctor)
	if len(templates) != 2 {
		t.Errorf("expected 2 templates, got %d", len(templates))
	}
}

func TestCreateTemplate_OverlapConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()
	if err := svc.CreateTemplate(ctx, shift(doctor, 2, "08:00", "12:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.CreateTemplate(ctx, shift(doctor, 2, "11:00", "14:00"))
	if !apperrors.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}

	// A different doctor may work the same hours.
	if err := svc.CreateTemplate(ctx, shift(uuid.New(), 2, "11:00", "14:00")); err != nil {
		t.Errorf("unexpected error for other doctor: %v", err)
	}
}

func TestUpdateTemplate_DoesNotConflictWithItself(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tpl := shift(uuid.New(), 3, "08:00", "12:00")
	if err := svc.CreateTemplate(ctx, tpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := svc.GetTemplate(ctx, tpl.ID)
	got.EndTime = timeofday.MustParse("13:00")
	if err := svc.UpdateTemplate(ctx, got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateTemplate_InactiveSkipsOverlapCheck(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()
	if err := svc.CreateTemplate(ctx, shift(doctor, 4, "08:00", "12:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other := shift(doctor, 5, "09:00", "10:00")
	if err := svc.CreateTemplate(ctx, other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved, _ := svc.GetTemplate(ctx, other.ID)
	moved.DayOfWeek = 4
	if err := svc.UpdateTemplate(ctx, moved); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	moved.Active = false
	if err := svc.UpdateTemplate(ctx, moved); err != nil {
		t.Errorf("inactive template should not conflict: %v", err)
	}
}

func TestDeleteTemplate_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.DeleteTemplate(context.Background(), uuid.New()); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
