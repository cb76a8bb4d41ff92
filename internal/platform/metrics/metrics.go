package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeSkipped   = "skipped"
)

// GeneratorMetrics exposes counters/histograms for slot generation. A nil
// *GeneratorMetrics is valid and records nothing.
type GeneratorMetrics struct {
	runsTotal        *prometheus.CounterVec
	slotsCreated     prometheus.Counter
	duplicates       prometheus.Counter
	invalidTemplates prometheus.Counter
	runDuration      prometheus.Histogram
}

func NewGeneratorMetrics(reg prometheus.Registerer) *GeneratorMetrics {
	m := &GeneratorMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nobat",
			Subsystem: "slotgen",
			Name:      "runs_total",
			Help:      "Slot generation runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		slotsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nobat",
			Subsystem: "slotgen",
			Name:      "slots_created_total",
			Help:      "Appointment slots inserted by the generator",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nobat",
			Subsystem: "slotgen",
			Name:      "duplicates_skipped_total",
			Help:      "Candidate slots skipped because they already existed",
		}),
		invalidTemplates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nobat",
			Subsystem: "slotgen",
			Name:      "templates_invalid_total",
			Help:      "Schedule templates skipped for configuration errors",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nobat",
			Subsystem: "slotgen",
			Name:      "run_duration_seconds",
			Help:      "Wall time of slot generation runs",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.slotsCreated, m.duplicates, m.invalidTemplates, m.runDuration)
	return m
}

// ObserveRun records one finished (or skipped) run.
func (m *GeneratorMetrics) ObserveRun(trigger, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(trigger, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.runDuration.Observe(d.Seconds())
	}
}

func (m *GeneratorMetrics) AddCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsCreated.Add(float64(n))
}

func (m *GeneratorMetrics) AddDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.duplicates.Add(float64(n))
}

func (m *GeneratorMetrics) IncInvalidTemplate() {
	if m == nil {
		return
	}
	m.invalidTemplates.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
