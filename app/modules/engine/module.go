package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/eventbus"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	engineadmin "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/admin"
	enginehandlers "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/handlers"
	enginequeue "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/queue"
	enginerouter "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/router"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/farraranalytics/MBB-Survivor-sub001/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module runs the engine's three callers: the River queue, the bus router
// and the admin HTTP server.
type Module struct {
	config     *config.Config
	service    engineservice.Service
	queue      *enginequeue.Service
	router     *enginerouter.EngineRouter
	httpServer *http.Server
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the engine module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	service engineservice.Service,
	bus *eventbus.Bus,
) (*Module, error) {
	logger := obs.Logger.With("module", "engine")
	logger.InfoContext(ctx, "Initializing engine module")

	queue, err := enginequeue.NewService(ctx, db, logger, cfg.Postgres.DSN, enginequeue.Options{
		MaxWorkers:        cfg.Queue.MaxWorkers,
		ReconcileInterval: cfg.Queue.ReconcileInterval,
	}, obs.Metrics, service)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine queue: %w", err)
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}
	router := enginerouter.NewEngineRouter(logger, wmRouter, bus.Subscriber(), obs.Registry)
	handlers := enginehandlers.NewEngineHandlers(queue, logger, obs.Tracer)
	if err := router.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure engine router: %w", err)
	}

	limiter := engineadmin.NewCallerLimiter(cfg.Admin.RateLimit, cfg.Admin.Burst, engineadmin.WithIdleTimeout(cfg.Admin.IdleAfter))
	verifier := engineadmin.NewHS256(cfg.Admin.JWTSecret)
	httpHandler := engineadmin.NewRouter(engineadmin.NewHandlers(service, logger), verifier, limiter, obs.Registry, logger)

	return &Module{
		config:  cfg,
		service: service,
		queue:   queue,
		router:  router,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpHandler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run starts the queue, the router and the HTTP server and blocks until ctx
// is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting engine module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.queue.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start engine queue", slog.Any("error", err))
		return
	}

	go func() {
		if err := m.router.Run(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Engine router stopped", slog.Any("error", err))
			cancel()
		}
	}()

	go func() {
		m.logger.InfoContext(ctx, "Admin HTTP listening", slog.String("addr", m.httpServer.Addr))
		if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.ErrorContext(ctx, "Admin HTTP server failed", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Engine module goroutine stopped")
}

// Close stops the HTTP server, the router and the queue, in that order.
func (m *Module) Close() error {
	m.logger.Info("Stopping engine module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if err := m.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := m.router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("router: %w", err))
	}
	if err := m.queue.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("queue: %w", err))
	}
	m.logger.Info("Engine module stopped")
	return errors.Join(errs...)
}

// GetService returns the engine service.
func (m *Module) GetService() engineservice.Service {
	return m.service
}

// Queue returns the job queue, for callers that submit results.
func (m *Module) Queue() enginequeue.QueueService {
	return m.queue
}
