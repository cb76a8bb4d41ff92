package directory

import (
	"context"

	"github.com/google/uuid"
)

type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Clinic, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	// Deactivate is a soft delete; the doctor's slots and templates stay.
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Doctor, int, error)
}

type ServiceRepository interface {
	Create(ctx context.Context, s *MedicalService) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error)
	Update(ctx context.Context, s *MedicalService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*MedicalService, int, error)
}

type InsuranceRepository interface {
	Create(ctx context.Context, i *Insurance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error)
	Update(ctx context.Context, i *Insurance) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Insurance, int, error)
}
