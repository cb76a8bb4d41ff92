package slotgen

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/appointment"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/holiday"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/schedule"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

var (
	doctorA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	doctorB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	tehran  = time.FixedZone("IRST", 3*3600+1800)
)

// day returns midnight of the given 2024-01 day in the test zone.
// 2024-01-06 is a Saturday.
func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, tehran)
}

func tpl(doctorID uuid.UUID, dow int, start, end string, minutes int) *schedule.Template {
	return &schedule.Template{
		ID:                  uuid.New(),
		DoctorID:            doctorID,
		DayOfWeek:           dow,
		StartTime:           timeofday.MustParse(start),
		EndTime:             timeofday.MustParse(end),
		SlotDurationMinutes: minutes,
		Capacity:            1,
		Active:              true,
	}
}

type fakeTemplates []*schedule.Template

func (f fakeTemplates) ListActive(context.Context) ([]*schedule.Template, error) {
	return f, nil
}

type fakeHolidays []string

func (f fakeHolidays) LoadSet(_ context.Context, _, _ time.Time, loc *time.Location) (*holiday.Set, error) {
	return holiday.NewSet(loc, f...), nil
}

// memSlots stores slots keyed like the appointment_slots unique constraint.
type memSlots struct {
	mu   sync.Mutex
	rows map[appointment.SlotKey]*appointment.Slot

	failFor      uuid.UUID
	beforeInsert func(doctorID uuid.UUID)
}

var errDiskFull = errors.New("disk full")

func newMemSlots() *memSlots {
	return &memSlots{rows: make(map[appointment.SlotKey]*appointment.Slot)}
}

func (m *memSlots) ExistingStarts(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]appointment.SlotKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lo, hi := timeofday.DateKey(from), timeofday.DateKey(to)
	var keys []appointment.SlotKey
	for k := range m.rows {
		if k.DoctorID == doctorID && k.Date >= lo && k.Date < hi {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memSlots) InsertBatch(_ context.Context, slots []*appointment.Slot) (int, error) {
	if len(slots) > 0 && m.beforeInsert != nil {
		m.beforeInsert(slots[0].DoctorID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(slots) > 0 && slots[0].DoctorID == m.failFor {
		return 0, errDiskFull
	}
	n := 0
	for _, s := range slots {
		if _, ok := m.rows[s.Key()]; ok {
			continue
		}
		m.rows[s.Key()] = s
		n++
	}
	return n, nil
}

func (m *memSlots) forDoctor(doctorID uuid.UUID) []*appointment.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*appointment.Slot
	for k, s := range m.rows {
		if k.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (m *memSlots) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// counterValue sums every series of the named counter family in reg.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

// slotColumns is the number of bind parameters one slot row adds to a batch insert.
const slotColumns = 12

// anyArgs matches n bind parameters of any value.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
