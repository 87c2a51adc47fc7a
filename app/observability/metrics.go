package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records service operations and engine outcomes.
type EngineMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)

	RecordPicksGraded(ctx context.Context, outcome string, n int)
	RecordEliminations(ctx context.Context, cause string, n int)
	RecordSlotsPropagated(ctx context.Context, n int)
	RecordChampions(ctx context.Context, kind string, n int)
}

// PrometheusMetrics implements EngineMetrics on a prometheus registry.
type PrometheusMetrics struct {
	attempts     *prometheus.CounterVec
	successes    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	graded       *prometheus.CounterVec
	eliminations *prometheus.CounterVec
	propagated   prometheus.Counter
	champions    *prometheus.CounterVec
}

// NewPrometheusMetrics registers the engine collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations that returned without error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failure_total",
			Help:      "Service operations that returned an error.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		graded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "picks_graded_total",
			Help:      "Picks graded, by outcome.",
		}, []string{"outcome"}),
		eliminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_eliminated_total",
			Help:      "Entries eliminated, by cause.",
		}, []string{"cause"}),
		propagated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bracket_slots_propagated_total",
			Help:      "Bracket slots written by winner propagation.",
		}),
		champions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_champions_total",
			Help:      "Pool champions declared, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.graded, m.eliminations, m.propagated, m.champions)
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordPicksGraded(_ context.Context, outcome string, n int) {
	if n > 0 {
		m.graded.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *PrometheusMetrics) RecordEliminations(_ context.Context, cause string, n int) {
	if n > 0 {
		m.eliminations.WithLabelValues(cause).Add(float64(n))
	}
}

func (m *PrometheusMetrics) RecordSlotsPropagated(_ context.Context, n int) {
	if n > 0 {
		m.propagated.Add(float64(n))
	}
}

func (m *PrometheusMetrics) RecordChampions(_ context.Context, kind string, n int) {
	if n > 0 {
		m.champions.WithLabelValues(kind).Add(float64(n))
	}
}

// NoOpMetrics discards everything. Used in tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordPicksGraded(context.Context, string, int)                         {}
func (NoOpMetrics) RecordEliminations(context.Context, string, int)                        {}
func (NoOpMetrics) RecordSlotsPropagated(context.Context, int)                             {}
func (NoOpMetrics) RecordChampions(context.Context, string, int)                           {}

var (
	_ EngineMetrics = (*PrometheusMetrics)(nil)
	_ EngineMetrics = NoOpMetrics{}
)
