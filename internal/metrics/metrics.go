// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abhisek/phasegate/internal/engine"
)

// Collector implements engine.Observer. One Collector is shared by every
// session of a process.
type Collector struct {
	events         *prometheus.CounterVec
	refusals       *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	violations     *prometheus.CounterVec
	patterns       *prometheus.CounterVec
	rewinds        *prometheus.CounterVec
	completions    *prometheus.CounterVec
	checkpoint     *prometheus.HistogramVec
	lessonDuration prometheus.Histogram
	activeSessions prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// New registers the phasegate metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_events_total",
			Help: "Events evaluated by kind and result",
		}, []string{"kind", "result"}),

		refusals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_refusals_total",
			Help: "Refused events by reason code",
		}, []string{"reason"}),

		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_phase_transitions_total",
			Help: "Phase pointer moves",
		}, []string{"from", "to"}),

		violations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_violations_total",
			Help: "Recorded violations by kind",
		}, []string{"kind"}),

		patterns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_guessing_patterns_total",
			Help: "Guessing patterns that triggered a lock",
		}, []string{"pattern"}),

		rewinds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_rewinds_total",
			Help: "Rewinds opened by failed checkpoint",
		}, []string{"phase"}),

		completions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegate_lessons_completed_total",
			Help: "Completed lessons by award tier",
		}, []string{"tier"}),

		checkpoint: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phasegate_checkpoint_score",
			Help:    "Measured checkpoint scores (0-100)",
			Buckets: []float64{20, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"phase"}),

		lessonDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "phasegate_lesson_duration_seconds",
			Help:    "Time from lesson start to completion",
			Buckets: []float64{300, 600, 900, 1200, 1800, 2700, 3600, 7200},
		}),

		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "phasegate_active_sessions",
			Help: "Sessions currently held in memory",
		}),
	}
}

// Observe records one evaluated event.
func (c *Collector) Observe(kind engine.EventKind, o engine.Outcome) {
	switch {
	case o.Granted:
		c.events.WithLabelValues(string(kind), "granted").Inc()
	case o.Accepted:
		c.events.WithLabelValues(string(kind), "accepted").Inc()
	case o.Reason != engine.ReasonNone:
		c.events.WithLabelValues(string(kind), "refused").Inc()
	default:
		c.events.WithLabelValues(string(kind), "noop").Inc()
	}

	if o.Reason != engine.ReasonNone {
		c.refusals.WithLabelValues(string(o.Reason.Code())).Inc()
	}
	if o.From.Valid() && o.From != o.Phase {
		c.transitions.WithLabelValues(o.From.String(), o.Phase.String()).Inc()
	}
	for _, v := range o.Violations {
		c.violations.WithLabelValues(string(v.Kind)).Inc()
	}
	if o.LockFor > 0 {
		for _, p := range o.Patterns {
			c.patterns.WithLabelValues(string(p)).Inc()
		}
	}
	if o.Rewind != nil {
		c.rewinds.WithLabelValues(o.Rewind.FailedPhase.String()).Inc()
	}
	if kind == engine.EventAdvance && o.Score != nil {
		// A passed checkpoint has already moved the pointer on.
		scored := o.Phase
		if o.From.Valid() {
			scored = o.From
		}
		if scored.IsCheckpoint() {
			c.checkpoint.WithLabelValues(scored.String()).Observe(*o.Score)
		}
	}
	if o.Completion != nil {
		c.completions.WithLabelValues(string(o.Completion.Tier)).Inc()
		c.lessonDuration.Observe(o.Completion.Elapsed.Seconds())
	}
}

// SessionOpened and SessionClosed track the in-memory session count.
func (c *Collector) SessionOpened() { c.activeSessions.Inc() }

func (c *Collector) SessionClosed() { c.activeSessions.Dec() }
