package appointment

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type SlotStatus string

const (
	SlotOpen      SlotStatus = "open"
	SlotBooked    SlotStatus = "booked"
	SlotCancelled SlotStatus = "cancelled"
	SlotCompleted SlotStatus = "completed"
)

// slotTransitions lists the statuses reachable from each status. booked
// returns to open when a booking on a full slot is cancelled.
var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotOpen:   {SlotBooked, SlotCancelled, SlotCompleted},
	SlotBooked: {SlotOpen, SlotCancelled, SlotCompleted},
}

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotOpen, SlotBooked, SlotCancelled, SlotCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a slot may move from s to next.
func (s SlotStatus) CanTransition(next SlotStatus) bool {
	for _, allowed := range slotTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Slot is one bookable interval of a doctor on a calendar day. Slots are
// half-open: [StartTime, EndTime).
type Slot struct {
	ID         uuid.UUID           `json:"id"`
	DoctorID   uuid.UUID           `json:"doctor_id"`
	TemplateID *uuid.UUID          `json:"template_id,omitempty"`
	ClinicID   *uuid.UUID          `json:"clinic_id,omitempty"`
	ServiceID  *uuid.UUID          `json:"service_id,omitempty"`
	Date       string              `json:"date"`
	StartTime  timeofday.TimeOfDay `json:"start_time"`
	EndTime    timeofday.TimeOfDay `json:"end_time"`
	Capacity   int                 `json:"capacity"`
	Reserved   int                 `json:"reserved"`
	Status     SlotStatus          `json:"status"`
	ExpireAt   time.Time           `json:"expire_at"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Key identifies the slot for duplicate detection.
func (s *Slot) Key() SlotKey {
	return SlotKey{DoctorID: s.DoctorID, Date: s.Date, Start: s.StartTime}
}

// CheckBookable returns a conflict error unless one more booking fits at now.
func (s *Slot) CheckBookable(now time.Time) error {
	switch {
	case s.Status != SlotOpen:
		return apperrors.Conflict("slot is %s", s.Status)
	case !now.Before(s.ExpireAt):
		return apperrors.Conflict("slot expired at %s", s.ExpireAt.Format(time.RFC3339))
	case s.Reserved >= s.Capacity:
		return apperrors.Conflict("slot is full")
	}
	return nil
}

// SlotKey is the natural key of a slot: one doctor cannot have two slots
// starting at the same minute of the same day.
type SlotKey struct {
	DoctorID uuid.UUID
	// Date is YYYY-MM-DD.
	Date  string
	Start timeofday.TimeOfDay
}

type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type Booking struct {
	ID                  uuid.UUID     `json:"id"`
	SlotID              uuid.UUID     `json:"slot_id"`
	PatientName         string        `json:"patient_name"`
	PatientPhone        string        `json:"patient_phone"`
	PatientNationalCode string        `json:"patient_national_code,omitempty"`
	InsuranceID         *uuid.UUID    `json:"insurance_id,omitempty"`
	BookedBy            string        `json:"booked_by"`
	Status              BookingStatus `json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (b *Booking) Validate() error {
	b.PatientName = strings.TrimSpace(b.PatientName)
	b.PatientPhone = strings.TrimSpace(b.PatientPhone)
	b.PatientNationalCode = strings.TrimSpace(b.PatientNationalCode)
	switch {
	case b.PatientName == "":
		return apperrors.Validation("patient_name is required")
	case b.PatientPhone == "":
		return apperrors.Validation("patient_phone is required")
	case b.PatientNationalCode != "" && !isNationalCode(b.PatientNationalCode):
		return apperrors.Validation("patient_national_code must be 10 digits")
	}
	return nil
}

func isNationalCode(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SlotFilter narrows slot searches. Zero fields are ignored.
type SlotFilter struct {
	DoctorID *uuid.UUID
	ClinicID *uuid.UUID
	// From and To bound slot_date as [From, To), YYYY-MM-DD.
	From   string
	To     string
	Status SlotStatus
	// AvailableAt keeps open, unexpired slots with free capacity.
	AvailableAt *time.Time
}
