package slotgen

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/appointment"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// Guard answers Exists from the slots already stored for a window plus the
// candidates accepted so far in the run. The unique constraint on
// appointment_slots remains the final arbiter between concurrent runs.
type Guard struct {
	keys map[appointment.SlotKey]struct{}
}

func NewGuard(existing []appointment.SlotKey) *Guard {
	g := &Guard{keys: make(map[appointment.SlotKey]struct{}, len(existing))}
	for _, k := range existing {
		g.keys[k] = struct{}{}
	}
	return g
}

// Exists reports whether the doctor already has a slot at start on date.
func (g *Guard) Exists(doctorID uuid.UUID, date time.Time, start timeofday.TimeOfDay) bool {
	_, ok := g.keys[appointment.SlotKey{DoctorID: doctorID, Date: timeofday.DateKey(date), Start: start}]
	return ok
}

// Claim records key and reports whether it was free.
func (g *Guard) Claim(key appointment.SlotKey) bool {
	if _, ok := g.keys[key]; ok {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}
