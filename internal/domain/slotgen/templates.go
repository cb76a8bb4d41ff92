package slotgen

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/schedule"
)

// TemplateSource lists the templates generation works from.
type TemplateSource interface {
	ListActive(ctx context.Context) ([]*schedule.Template, error)
}

// Lookup indexes valid templates by doctor and Saturday-first weekday.
type Lookup struct {
	byDoctor map[uuid.UUID]*[7][]*schedule.Template
	doctors  []uuid.UUID
}

// NewLookup indexes templates. Templates failing Validate are left out and
// passed to onInvalid when it is non-nil.
func NewLookup(templates []*schedule.Template, onInvalid func(*schedule.Template, error)) *Lookup {
	l := &Lookup{byDoctor: make(map[uuid.UUID]*[7][]*schedule.Template)}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			if onInvalid != nil {
				onInvalid(t, err)
			}
			continue
		}
		week, ok := l.byDoctor[t.DoctorID]
		if !ok {
			week = new([7][]*schedule.Template)
			l.byDoctor[t.DoctorID] = week
			l.doctors = append(l.doctors, t.DoctorID)
		}
		week[t.DayOfWeek] = append(week[t.DayOfWeek], t)
	}
	sort.Slice(l.doctors, func(i, j int) bool { return l.doctors[i].String() < l.doctors[j].String() })
	for _, week := range l.byDoctor {
		for _, day := range week {
			sort.SliceStable(day, func(i, j int) bool { return day[i].StartTime < day[j].StartTime })
		}
	}
	return l
}

// TemplatesFor returns the doctor's templates for dayOfWeek (0 = Saturday)
// ordered by start time.
func (l *Lookup) TemplatesFor(doctorID uuid.UUID, dayOfWeek int) []*schedule.Template {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil
	}
	week, ok := l.byDoctor[doctorID]
	if !ok {
		return nil
	}
	return week[dayOfWeek]
}

// Doctors lists every doctor with at least one valid template, in a
// stable order.
func (l *Lookup) Doctors() []uuid.UUID {
	return l.doctors
}
