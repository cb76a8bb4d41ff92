package holiday

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateHoliday(ctx context.Context, h *Holiday) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, h)
}

func (s *Service) GetHoliday(ctx context.Context, id uuid.UUID) (*Holiday, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateHoliday(ctx context.Context, h *Holiday) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, h)
}

func (s *Service) DeleteHoliday(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListBetween(ctx context.Context, from, to time.Time) ([]*Holiday, error) {
	if !from.Before(to) {
		return nil, apperrors.Validation("from must be before to")
	}
	return s.repo.ListBetween(ctx, from, to)
}

// LoadSet reads the holidays of [from, to) into a Set keyed in loc.
func (s *Service) LoadSet(ctx context.Context, from, to time.Time, loc *time.Location) (*Set, error) {
	items, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(items))
	for _, h := range items {
		dates = append(dates, h.Date)
	}
	return NewSet(loc, dates...), nil
}
