package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics holds the collectors fed by the instrumented middleware.
type StoreMetrics struct {
	Duration *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

// NewStoreMetrics creates and registers store collectors on reg.
// The backend label distinguishes stores sharing a registry.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "session_store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of session store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "session_store",
			Name:      "errors_total",
			Help:      "Session store operations that failed (not-found excluded).",
		}, []string{"backend", "op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Duration, m.Errors)
	}
	return m
}

type instrumentedMiddleware struct {
	next    ports.StateStore
	metrics *StoreMetrics
	backend string
}

// NewInstrumentedMiddleware records latency and failures of every store call.
func NewInstrumentedMiddleware(metrics *StoreMetrics, backend string) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		return &instrumentedMiddleware{next: next, metrics: metrics, backend: backend}
	}
}

func (m *instrumentedMiddleware) observe(op string, start time.Time, err error) {
	m.metrics.Duration.WithLabelValues(m.backend, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.metrics.Errors.WithLabelValues(m.backend, op).Inc()
	}
}

func (m *instrumentedMiddleware) Save(ctx context.Context, userID string, session *domain.Session) (err error) {
	defer func(start time.Time) { m.observe("save", start, err) }(time.Now())
	return m.next.Save(ctx, userID, session)
}

func (m *instrumentedMiddleware) Load(ctx context.Context, userID string) (s *domain.Session, err error) {
	defer func(start time.Time) { m.observe("load", start, err) }(time.Now())
	return m.next.Load(ctx, userID)
}

func (m *instrumentedMiddleware) Delete(ctx context.Context, userID string) (err error) {
	defer func(start time.Time) { m.observe("delete", start, err) }(time.Now())
	return m.next.Delete(ctx, userID)
}

func (m *instrumentedMiddleware) List(ctx context.Context) (ids []string, err error) {
	defer func(start time.Time) { m.observe("list", start, err) }(time.Now())
	return m.next.List(ctx)
}
