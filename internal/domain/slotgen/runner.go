package slotgen

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/lock"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/metrics"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// Trigger values label runs in reports and metrics.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

const lockKey = "slotgen"

// ErrRunInProgress is returned when another run holds the generation lock.
var ErrRunInProgress = errors.New("slot generation is already running")

// Generate is the operation the Runner schedules.
type Generate interface {
	Generate(ctx context.Context, start, end time.Time) (Result, error)
}

// RunReport is what a caller learns about a finished run.
type RunReport struct {
	Result
	Trigger    string    `json:"trigger"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

type RunnerConfig struct {
	Interval   time.Duration
	WindowDays int
	RunOnStart bool
	LockTTL    time.Duration
}

// Runner drives the generator on a ticker and on demand. Runs are
// serialised through the Locker, so only one process generates at a time.
type Runner struct {
	gen     Generate
	locker  lock.Locker
	cfg     RunnerConfig
	loc     *time.Location
	logger  zerolog.Logger
	metrics *metrics.GeneratorMetrics
	now     func() time.Time

	mu   sync.RWMutex
	last *RunReport
}

func NewRunner(gen Generate, locker lock.Locker, cfg RunnerConfig, loc *time.Location,
	logger zerolog.Logger, m *metrics.GeneratorMetrics) *Runner {
	if loc == nil {
		loc = time.Local
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Runner{
		gen:     gen,
		locker:  locker,
		cfg:     cfg,
		loc:     loc,
		logger:  logger.With().Str("component", "slotgen-runner").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

// Start runs the window every Interval until ctx is cancelled. Failures are
// logged; the next tick retries the whole window.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info().
		Dur("interval", r.cfg.Interval).
		Int("window_days", r.cfg.WindowDays).
		Msg("slot generation scheduler started")

	if r.cfg.RunOnStart {
		r.runScheduled(ctx)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("slot generation scheduler stopped")
			return
		case <-ticker.C:
			r.runScheduled(ctx)
		}
	}
}

func (r *Runner) runScheduled(ctx context.Context) {
	today := timeofday.Date(r.now(), r.loc)
	if _, err := r.Run(ctx, today, r.cfg.WindowDays, TriggerSchedule); errors.Is(err, ErrRunInProgress) {
		r.logger.Info().Msg("skipping scheduled slot generation: another run holds the lock")
	}
}

// Run generates [from, from+days) under the generation lock. The report is
// returned even when err is non-nil, carrying the partial count.
func (r *Runner) Run(ctx context.Context, from time.Time, days int, trigger string) (RunReport, error) {
	from = timeofday.Date(from, r.loc)
	report := RunReport{Trigger: trigger, StartedAt: r.now()}

	lease, err := r.locker.Acquire(ctx, lockKey, r.cfg.LockTTL)
	if err != nil {
		report.Outcome = metrics.OutcomeSkipped
		r.metrics.ObserveRun(trigger, metrics.OutcomeSkipped, 0)
		if errors.Is(err, lock.ErrLocked) {
			return report, ErrRunInProgress
		}
		return report, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn().Err(err).Msg("failed to release slot generation lock")
		}
	}()

	res, genErr := r.gen.Generate(ctx, from, from.AddDate(0, 0, days))
	report.Result = res
	report.FinishedAt = r.now()
	elapsed := report.FinishedAt.Sub(report.StartedAt)

	switch {
	case genErr == nil:
		report.Outcome = metrics.OutcomeSuccess
	case errors.Is(genErr, context.Canceled) || errors.Is(genErr, context.DeadlineExceeded):
		report.Outcome = metrics.OutcomeCancelled
	default:
		report.Outcome = metrics.OutcomeFailed
	}
	if genErr != nil {
		report.Error = genErr.Error()
	}
	r.metrics.ObserveRun(trigger, report.Outcome, elapsed)
	r.setLast(report)

	evt := r.logger.Info()
	if report.Outcome == metrics.OutcomeFailed {
		evt = r.logger.Error().Err(genErr)
	} else if report.Outcome == metrics.OutcomeCancelled {
		evt = r.logger.Warn().Err(genErr)
	}
	evt.Str("trigger", trigger).
		Str("window_start", res.WindowStart).
		Str("window_end", res.WindowEnd).
		Int("created", res.Created).
		Int("duplicates", res.Duplicates).
		Int("invalid_templates", res.InvalidTemplates).
		Dur("duration", elapsed).
		Msg("slot generation finished")

	return report, genErr
}

func (r *Runner) setLast(report RunReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &report
}

// Last returns the most recent finished run of this process.
func (r *Runner) Last() (RunReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return RunReport{}, false
	}
	return *r.last, true
}

// WindowDays is the default manual window length.
func (r *Runner) WindowDays() int { return r.cfg.WindowDays }

// Today is the current calendar day in the clinic time zone.
func (r *Runner) Today() time.Time { return timeofday.Date(r.now(), r.loc) }
