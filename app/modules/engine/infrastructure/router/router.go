package enginerouter

import (
	"context"
	"log/slog"
	"os"
	"time"

	enginehandlers "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/handlers"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// TestEnvironmentFlag is the flag to check if we're in a test environment
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// EngineRouter routes bus events to the engine handlers.
type EngineRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewEngineRouter creates an EngineRouter. Router metrics are registered on
// registry unless it is nil or APP_ENV=test.
func NewEngineRouter(logger *slog.Logger, router *message.Router, subscriber message.Subscriber, registry *prometheus.Registry) *EngineRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && os.Getenv(TestEnvironmentFlag) != TestEnvironmentValue {
		builder := metrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &builder
	}
	return &EngineRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds middleware and registers the handlers.
func (r *EngineRouter) Configure(ctx context.Context, handlers enginehandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware for engine")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
		}.Middleware,
	)

	eventsToHandlers := map[string]message.HandlerFunc{
		enginehandlers.GameFinalizedTopicV1: handlers.HandleGameFinalized,
	}
	for topic, handlerFunc := range eventsToHandlers {
		handlerName := "engine." + topic
		r.Router.AddHandler(
			handlerName,
			topic,
			r.subscriber,
			"",
			nil,
			func(msg *message.Message) ([]*message.Message, error) {
				out, err := handlerFunc(msg)
				if err != nil {
					r.logger.ErrorContext(ctx, "Error processing message",
						slog.String("handler", handlerName),
						slog.String("message_id", msg.UUID),
						slog.Any("error", err),
					)
				}
				return out, err
			},
		)
	}
	return nil
}

// Run blocks until ctx is done or the router stops.
func (r *EngineRouter) Run(ctx context.Context) error {
	return r.Router.Run(ctx)
}

func (r *EngineRouter) Close() error {
	return r.Router.Close()
}
