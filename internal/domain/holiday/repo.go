package holiday

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, h *Holiday) error
	GetByID(ctx context.Context, id uuid.UUID) (*Holiday, error)
	Update(ctx context.Context, h *Holiday) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListBetween returns holidays in [from, to) ordered by date. The
	// calendar days of from and to are used as-is.
	ListBetween(ctx context.Context, from, to time.Time) ([]*Holiday, error)
}
