package slotgen

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/appointment"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/schedule"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/metrics"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

func newGenerator(templates []*schedule.Template, holidays []string, store SlotStore) *Generator {
	return NewGenerator(fakeTemplates(templates), fakeHolidays(holidays), store, db.NoTx,
		tehran, zerolog.Nop(), nil)
}

func TestGenerate_SaturdayMorning(t *testing.T) {
	store := newMemSlots()
	morning := tpl(doctorA, 0, "08:00", "12:00", 30)
	gen := newGenerator([]*schedule.Template{morning}, nil, store)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 8, res.Created)
	assert.Equal(t, "2024-01-06", res.WindowStart)
	assert.Equal(t, "2024-01-07", res.WindowEnd)

	slots := store.forDoctor(doctorA)
	require.Len(t, slots, 8)
	wantStarts := []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	for i, s := range slots {
		assert.Equal(t, wantStarts[i], s.StartTime.String())
		assert.Equal(t, s.StartTime.Add(30), s.EndTime)
		assert.Equal(t, "2024-01-06", s.Date)
		assert.Equal(t, appointment.SlotOpen, s.Status)
		assert.Equal(t, 1, s.Capacity)
		require.NotNil(t, s.TemplateID)
		assert.Equal(t, morning.ID, *s.TemplateID)
	}
	assert.True(t, slots[7].ExpireAt.Equal(time.Date(2024, 1, 6, 12, 0, 0, 0, tehran)),
		"expire_at is the slot end on its day, got %v", slots[7].ExpireAt)
}

func TestGenerate_HolidayYieldsNothing(t *testing.T) {
	store := newMemSlots()
	gen := newGenerator([]*schedule.Template{tpl(doctorA, 0, "08:00", "12:00", 30)}, []string{"2024-01-06"}, store)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Holidays)
	assert.Equal(t, 0, store.count())
}

func TestGenerate_HolidayOnlyExcludesThatDay(t *testing.T) {
	store := newMemSlots()
	var week []*schedule.Template
	for dow := 0; dow < 7; dow++ {
		week = append(week, tpl(doctorA, dow, "08:00", "10:00", 30))
	}
	gen := newGenerator(week, []string{"2024-01-08"}, store)

	res, err := gen.Generate(context.Background(), day(6), day(13))
	require.NoError(t, err)
	assert.Equal(t, 6*4, res.Created)
	for _, s := range store.forDoctor(doctorA) {
		assert.NotEqual(t, "2024-01-08", s.Date)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	store := newMemSlots()
	gen := newGenerator([]*schedule.Template{tpl(doctorA, 0, "08:00", "12:00", 30)}, nil, store)
	ctx := context.Background()

	first, err := gen.Generate(ctx, day(6), day(7))
	require.NoError(t, err)
	second, err := gen.Generate(ctx, day(6), day(7))
	require.NoError(t, err)

	assert.Equal(t, 8, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 8, second.Duplicates)
	assert.Equal(t, 8, store.count())
}

func TestGenerate_OverlappingWindows(t *testing.T) {
	store := newMemSlots()
	var week []*schedule.Template
	for dow := 0; dow < 7; dow++ {
		week = append(week, tpl(doctorA, dow, "08:00", "10:00", 30))
	}
	gen := newGenerator(week, nil, store)
	ctx := context.Background()

	first, err := gen.Generate(ctx, day(6), day(11))
	require.NoError(t, err)
	require.Equal(t, 5*4, first.Created)

	second, err := gen.Generate(ctx, day(8), day(11))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, first.Created, store.count())
}

func TestGenerate_TwoShiftsSameDay(t *testing.T) {
	store := newMemSlots()
	gen := newGenerator([]*schedule.Template{
		tpl(doctorA, 0, "08:00", "10:00", 30),
		tpl(doctorA, 0, "14:00", "15:00", 20),
	}, nil, store)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 4+3, res.Created)

	slots := store.forDoctor(doctorA)
	for i := 1; i < len(slots); i++ {
		assert.LessOrEqual(t, slots[i-1].EndTime, slots[i].StartTime, "slots must not overlap")
	}
}

func TestGenerate_PartialTailDropped(t *testing.T) {
	store := newMemSlots()
	gen := newGenerator([]*schedule.Template{tpl(doctorA, 0, "08:00", "09:50", 20)}, nil, store)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Created)
	for _, s := range store.forDoctor(doctorA) {
		assert.LessOrEqual(t, s.EndTime, timeofday.MustParse("09:50"))
	}
}

func TestGenerate_SaturdayFirstWeek(t *testing.T) {
	store := newMemSlots()
	// Day 6 is Friday in a Saturday-first week.
	gen := newGenerator([]*schedule.Template{tpl(doctorA, 6, "08:00", "09:00", 30)}, nil, store)

	_, err := gen.Generate(context.Background(), day(6), day(13))
	require.NoError(t, err)
	slots := store.forDoctor(doctorA)
	require.Len(t, slots, 2)
	assert.Equal(t, "2024-01-12", slots[0].Date)
}

func TestGenerate_InvalidTemplateSkipped(t *testing.T) {
	store := newMemSlots()
	reg := prometheus.NewRegistry()
	m := metrics.NewGeneratorMetrics(reg)
	gen := NewGenerator(fakeTemplates{
		tpl(doctorA, 0, "12:00", "08:00", 30),
		tpl(doctorB, 0, "08:00", "12:00", 30),
	}, fakeHolidays(nil), store, db.NoTx, tehran, zerolog.Nop(), m)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 1, res.InvalidTemplates)
	assert.Equal(t, 8, res.Created)
	assert.Empty(t, store.forDoctor(doctorA))
	assert.Len(t, store.forDoctor(doctorB), 8)
	assert.Equal(t, 8.0, counterValue(t, reg, "nobat_slotgen_slots_created_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "nobat_slotgen_templates_invalid_total"))
}

func TestGenerate_PersistenceFailureKeepsEarlierDoctors(t *testing.T) {
	store := newMemSlots()
	store.failFor = doctorB
	gen := newGenerator([]*schedule.Template{
		tpl(doctorA, 0, "08:00", "12:00", 30),
		tpl(doctorB, 0, "08:00", "12:00", 30),
	}, nil, store)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), doctorB.String())
	assert.Equal(t, 8, res.Created, "doctor A stays committed")
	assert.Len(t, store.forDoctor(doctorA), 8)
	assert.Empty(t, store.forDoctor(doctorB))
}

func TestGenerate_ConcurrentInsertCountsAsDuplicate(t *testing.T) {
	store := newMemSlots()
	// Another run inserts 08:00 between our existence check and our insert.
	store.beforeInsert = func(doctorID uuid.UUID) {
		store.mu.Lock()
		defer store.mu.Unlock()
		k := appointment.SlotKey{DoctorID: doctorID, Date: "2024-01-06", Start: timeofday.MustParse("08:00")}
		store.rows[k] = &appointment.Slot{DoctorID: doctorID, Date: k.Date, StartTime: k.Start}
	}
	gen := newGenerator([]*schedule.Template{tpl(doctorA, 0, "08:00", "12:00", 30)}, nil, store)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Created)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 8, store.count())
}

func TestGenerate_CancelledBeforeStart(t *testing.T) {
	store := newMemSlots()
	gen := newGenerator([]*schedule.Template{tpl(doctorA, 0, "08:00", "12:00", 30)}, nil, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := gen.Generate(ctx, day(6), day(7))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 0, store.count())
}

func TestGenerate_CancelledBetweenDoctors(t *testing.T) {
	store := newMemSlots()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.beforeInsert = func(doctorID uuid.UUID) {
		if doctorID == doctorA {
			cancel()
		}
	}
	gen := newGenerator([]*schedule.Template{
		tpl(doctorA, 0, "08:00", "12:00", 30),
		tpl(doctorB, 0, "08:00", "12:00", 30),
	}, nil, store)

	res, err := gen.Generate(ctx, day(6), day(7))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 8, res.Created)
	assert.Empty(t, store.forDoctor(doctorB))

	// The next run fills the gap.
	res, err = gen.Generate(context.Background(), day(6), day(7))
	require.NoError(t, err)
	assert.Equal(t, 8, res.Created)
	assert.Equal(t, 16, store.count())
}

func TestGenerate_EmptyWindow(t *testing.T) {
	gen := newGenerator(nil, nil, newMemSlots())
	_, err := gen.Generate(context.Background(), day(7), day(7))
	assert.True(t, apperrors.IsValidation(err), "got %v", err)
}

// TestGenerate_TransactionPerDoctor drives the real repository through
// pgxmock: the second doctor's insert fails and only its transaction rolls back.
func TestGenerate_TransactionPerDoctor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	existing := []string{"slot_date", "start_time"}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT slot_date, start_time FROM appointment_slots").
		WithArgs(doctorA, "2024-01-06", "2024-01-07").
		WillReturnRows(pgxmock.NewRows(existing))
	mock.ExpectExec(`INSERT INTO "appointment_slots"`).
		WithArgs(anyArgs(8 * slotColumns)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 8))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT slot_date, start_time FROM appointment_slots").
		WithArgs(doctorB, "2024-01-06", "2024-01-07").
		WillReturnRows(pgxmock.NewRows(existing))
	mock.ExpectExec(`INSERT INTO "appointment_slots"`).
		WithArgs(anyArgs(8 * slotColumns)...).
		WillReturnError(&pgconn.PgError{Code: "53100"})
	mock.ExpectRollback()

	gen := NewGenerator(fakeTemplates{
		tpl(doctorA, 0, "08:00", "12:00", 30),
		tpl(doctorB, 0, "08:00", "12:00", 30),
	}, fakeHolidays(nil), appointment.NewSlotRepoPG(mock), db.NewRunner(mock), tehran, zerolog.Nop(), nil)

	res, err := gen.Generate(context.Background(), day(6), day(7))
	require.Error(t, err)
	assert.Equal(t, 8, res.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
