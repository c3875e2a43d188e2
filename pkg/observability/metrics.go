package observability

import (
	"context"
	"errors"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the conversation collectors.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Ignored     *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg (if not nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "transitions_total",
			Help:      "Persisted conversation transitions.",
		}, []string{"from", "to"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "event_failures_total",
			Help:      "Events answered with a retry prompt, by cause.",
		}, []string{"state", "cause"}),
		Ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "events_ignored_total",
			Help:      "Events absorbed without a state change.",
		}, []string{"state"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "event_duration_seconds",
			Help:      "Time spent applying an event, store write included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.Failures, m.Ignored, m.Duration)
	}
	return m
}

// Hooks returns lifecycle hooks feeding m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			m.Duration.WithLabelValues(e.Intent).Observe(e.Duration.Seconds())
		},
		OnFailure: func(_ context.Context, e *domain.FailureEvent) {
			m.Failures.WithLabelValues(string(e.State), Cause(e.Err)).Inc()
		},
		OnIgnored: func(_ context.Context, e *domain.IgnoredEvent) {
			m.Ignored.WithLabelValues(string(e.State)).Inc()
		},
	}
}

// Cause maps an error to a low-cardinality label value.
func Cause(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "other"
	}
}
