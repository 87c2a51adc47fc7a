package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the logger, metrics and tracer handed to modules.
type Observability struct {
	Logger   *slog.Logger
	Metrics  EngineMetrics
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// Config selects how observability is built.
type Config struct {
	ServiceName string
	LogLevel    string
	LogFormat   string
}

// New builds a process-wide Observability with a fresh prometheus registry.
// Tracing goes through the global otel provider, which stays a no-op until
// an exporter is installed.
func New(cfg Config) Observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return Observability{
		Logger:   NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", cfg.ServiceName),
		Metrics:  NewPrometheusMetrics(reg, "survivor"),
		Tracer:   otel.Tracer(cfg.ServiceName),
		Registry: reg,
	}
}

// NewNoop returns an Observability that drops all telemetry and logs to
// the given logger.
func NewNoop(logger *slog.Logger) Observability {
	return Observability{
		Logger:  logger,
		Metrics: NoOpMetrics{},
		Tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
}
