package directory

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	clinics    ClinicRepository
	doctors    DoctorRepository
	services   ServiceRepository
	insurances InsuranceRepository
}

func NewService(clinics ClinicRepository, doctors DoctorRepository, services ServiceRepository, insurances InsuranceRepository) *Service {
	return &Service{clinics: clinics, doctors: doctors, services: services, insurances: insurances}
}

// -- Clinic --

func (s *Service) CreateClinic(ctx context.Context, c *Clinic) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.Active = true
	return s.clinics.Create(ctx, c)
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

func (s *Service) UpdateClinic(ctx context.Context, c *Clinic) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.clinics.Update(ctx, c)
}

func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	return s.clinics.Delete(ctx, id)
}

func (s *Service) ListClinics(ctx context.Context, f ListFilter, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.List(ctx, f, limit, offset)
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.Active = true
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.doctors.Update(ctx, d)
}

// DeactivateDoctor hides the doctor from booking; generation stops for
// their templates on the next run.
func (s *Service) DeactivateDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Deactivate(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, f ListFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, f, limit, offset)
}

// -- Medical service --

func (s *Service) CreateMedicalService(ctx context.Context, ms *MedicalService) error {
	if err := ms.Validate(); err != nil {
		return err
	}
	ms.Active = true
	return s.services.Create(ctx, ms)
}

func (s *Service) GetMedicalService(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) UpdateMedicalService(ctx context.Context, ms *MedicalService) error {
	if err := ms.Validate(); err != nil {
		return err
	}
	return s.services.Update(ctx, ms)
}

func (s *Service) DeleteMedicalService(ctx context.Context, id uuid.UUID) error {
	return s.services.Delete(ctx, id)
}

func (s *Service) ListMedicalServices(ctx context.Context, f ListFilter, limit, offset int) ([]*MedicalService, int, error) {
	return s.services.List(ctx, f, limit, offset)
}

// -- Insurance --

func (s *Service) CreateInsurance(ctx context.Context, i *Insurance) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.Active = true
	return s.insurances.Create(ctx, i)
}

func (s *Service) GetInsurance(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	return s.insurances.GetByID(ctx, id)
}

func (s *Service) UpdateInsurance(ctx context.Context, i *Insurance) error {
	if err := i.Validate(); err != nil {
		return err
	}
	return s.insurances.Update(ctx, i)
}

func (s *Service) DeleteInsurance(ctx context.Context, id uuid.UUID) error {
	return s.insurances.Delete(ctx, id)
}

func (s *Service) ListInsurances(ctx context.Context, f ListFilter, limit, offset int) ([]*Insurance, int, error) {
	return s.insurances.List(ctx, f, limit, offset)
}
