package slotgen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/appointment"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/holiday"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/schedule"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/metrics"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// SlotStore is the slice of the slot repository generation writes through.
type SlotStore interface {
	ExistingStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]appointment.SlotKey, error)
	InsertBatch(ctx context.Context, slots []*appointment.Slot) (int, error)
}

// Result summarises one Generate call. Counts cover committed work only.
type Result struct {
	WindowStart      string `json:"window_start"`
	WindowEnd        string `json:"window_end"`
	Created          int    `json:"created"`
	Duplicates       int    `json:"duplicates"`
	InvalidTemplates int    `json:"invalid_templates"`
	Holidays         int    `json:"holidays"`
	Doctors          int    `json:"doctors"`
}

type Generator struct {
	templates TemplateSource
	holidays  HolidaySource
	slots     SlotStore
	runTx     db.Runner
	loc       *time.Location
	logger    zerolog.Logger
	metrics   *metrics.GeneratorMetrics
}

func NewGenerator(templates TemplateSource, holidays HolidaySource, slots SlotStore, runTx db.Runner,
	loc *time.Location, logger zerolog.Logger, m *metrics.GeneratorMetrics) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{
		templates: templates,
		holidays:  holidays,
		slots:     slots,
		runTx:     runTx,
		loc:       loc,
		logger:    logger.With().Str("component", "slotgen").Logger(),
		metrics:   m,
	}
}

// Generate materialises open slots for every calendar day in [start, end).
//
// Each doctor is written in its own transaction. When a doctor fails, the
// run stops and the returned Result still counts the doctors committed
// before it. Cancellation is checked before every doctor and every day and
// returns ctx.Err() with the same partial Result.
func (g *Generator) Generate(ctx context.Context, start, end time.Time) (Result, error) {
	from, to := timeofday.Date(start, g.loc), timeofday.Date(end, g.loc)
	res := Result{WindowStart: timeofday.DateKey(from), WindowEnd: timeofday.DateKey(to)}
	if !from.Before(to) {
		return res, apperrors.Validation("empty window %s..%s", res.WindowStart, res.WindowEnd)
	}

	holidays, err := g.holidays.LoadSet(ctx, from, to, g.loc)
	if err != nil {
		return res, fmt.Errorf("load holidays: %w", err)
	}
	res.Holidays = holidays.Len()

	templates, err := g.templates.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("load schedule templates: %w", err)
	}
	lookup := NewLookup(templates, func(t *schedule.Template, err error) {
		res.InvalidTemplates++
		g.metrics.IncInvalidTemplate()
		g.logger.Warn().Err(err).
			Str("template_id", t.ID.String()).
			Str("doctor_id", t.DoctorID.String()).
			Msg("skipping invalid schedule template")
	})

	for _, doctorID := range lookup.Doctors() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		created, dups, err := g.generateDoctor(ctx, doctorID, lookup, holidays, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, fmt.Errorf("generate slots for doctor %s: %w", doctorID, err)
		}
		res.Doctors++
		res.Created += created
		res.Duplicates += dups
		g.metrics.AddCreated(created)
		g.metrics.AddDuplicates(dups)
	}
	return res, nil
}

func (g *Generator) generateDoctor(ctx context.Context, doctorID uuid.UUID, lookup *Lookup, holidays *holiday.Set,
	from, to time.Time) (created, duplicates int, err error) {
	err = g.runTx(ctx, func(ctx context.Context) error {
		existing, err := g.slots.ExistingStarts(ctx, doctorID, from, to)
		if err != nil {
			return fmt.Errorf("load existing slots: %w", err)
		}
		guard := NewGuard(existing)

		var batch []*appointment.Slot
		dups := 0
		for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if holidays.IsHoliday(d) {
				continue
			}
			for _, t := range lookup.TemplatesFor(doctorID, timeofday.DayOfWeek(d)) {
				for _, iv := range Partition(t.StartTime, t.EndTime, t.SlotDurationMinutes) {
					if guard.Exists(doctorID, d, iv.Start) {
						dups++
						continue
					}
					guard.Claim(appointment.SlotKey{DoctorID: doctorID, Date: timeofday.DateKey(d), Start: iv.Start})
					batch = append(batch, newSlot(t, d, iv, g.loc))
				}
			}
		}
		if len(batch) == 0 {
			duplicates = dups
			return nil
		}

		n, err := g.slots.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		// Rows the unique constraint swallowed were inserted by a concurrent run.
		created, duplicates = n, dups+len(batch)-n
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, duplicates, nil
}

func newSlot(t *schedule.Template, day time.Time, iv Interval, loc *time.Location) *appointment.Slot {
	templateID := t.ID
	return &appointment.Slot{
		DoctorID:   t.DoctorID,
		TemplateID: &templateID,
		ClinicID:   t.ClinicID,
		ServiceID:  t.ServiceID,
		Date:       timeofday.DateKey(day),
		StartTime:  iv.Start,
		EndTime:    iv.End,
		Capacity:   t.Capacity,
		Status:     appointment.SlotOpen,
		ExpireAt:   iv.End.On(day, loc),
	}
}
