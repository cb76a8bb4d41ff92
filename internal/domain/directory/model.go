package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

type Clinic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Clinic) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperrors.Validation("clinic name is required")
	}
	return nil
}

type Doctor struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	MedicalCode string    `json:"medical_code"`
	Specialty   string    `json:"specialty"`
	Phone       string    `json:"phone"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

func (d *Doctor) Validate() error {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.MedicalCode = strings.TrimSpace(d.MedicalCode)
	switch {
	case d.FirstName == "":
		return apperrors.Validation("first_name is required")
	case d.LastName == "":
		return apperrors.Validation("last_name is required")
	case d.MedicalCode == "":
		return apperrors.Validation("medical_code is required")
	}
	return nil
}

// MedicalService is a bookable visit type (consultation, ultrasound, ...).
type MedicalService struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *MedicalService) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return apperrors.Validation("service name is required")
	}
	return nil
}

type Insurance struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Insurance) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return apperrors.Validation("insurance name is required")
	}
	return nil
}

// ListFilter narrows directory listings.
type ListFilter struct {
	// Query matches names case-insensitively.
	Query      string
	ActiveOnly bool
}
