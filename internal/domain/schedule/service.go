package schedule

import (
	"context"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

type Service struct {
	repo  Repository
	runTx db.Runner
}

func NewService(repo Repository, runTx db.Runner) *Service {
	return &Service{repo: repo, runTx: runTx}
}

func (s *Service) CreateTemplate(ctx context.Context, t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.Active = true
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.checkOverlap(ctx, t); err != nil {
			return err
		}
		return s.repo.Create(ctx, t)
	})
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateTemplate(ctx context.Context, t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.checkOverlap(ctx, t); err != nil {
			return err
		}
		return s.repo.Update(ctx, t)
	})
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListActive(ctx context.Context) ([]*Template, error) {
	return s.repo.ListActive(ctx)
}

// checkOverlap rejects t when another active template of the same doctor
// shares part of its shift.
func (s *Service) checkOverlap(ctx context.Context, t *Template) error {
	if !t.Active {
		return nil
	}
	existing, err := s.repo.ListByDoctor(ctx, t.DoctorID)
	if err != nil {
		return err
	}
	for _, o := range existing {
		if o.ID == t.ID || !o.Active {
			continue
		}
		if t.Overlaps(o) {
			return apperrors.Conflict("shift %s-%s overlaps template %s (%s-%s)",
				t.StartTime, t.EndTime, o.ID, o.StartTime, o.EndTime)
		}
	}
	return nil
}
