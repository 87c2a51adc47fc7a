// Package app assembles the engine from configuration: database, clock,
// notification sink, services and, for serve, the engine module.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/bundb"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/eventbus"
	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/farraranalytics/MBB-Survivor-sub001/config"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// notifyBuffer bounds the async sink.
const notifyBuffer = 256

// App holds the wired services.
type App struct {
	Config   *config.Config
	Obs      observability.Observability
	DB       *bun.DB
	Clock    *clock.Provider
	Bracket  *bracketservice.BracketService
	Survivor *survivorservice.SurvivorService
	Engine   *engineservice.EngineService
	Bus      *eventbus.Bus

	sink  *notify.Async
	redis *redis.Client
}

// New connects to Postgres and, when configured, NATS and Redis, and builds
// the services. Without NATS notifications are logged and dropped.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(observability.Config{
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    cfg.Observability.LogLevel,
		LogFormat:   cfg.Observability.LogFormat,
	})
	return NewWithObservability(ctx, cfg, obs)
}

// NewWithObservability is New with caller-supplied telemetry.
func NewWithObservability(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	logger := obs.Logger
	a := &App{Config: cfg, Obs: obs}

	db, err := bundb.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	a.DB = db

	store, err := a.clockStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Clock = clock.NewProvider(store, cfg.Clock.SimulationEnabled, cfg.Clock.CacheTTL, logger)

	var sink notify.Sink = logSink{logger: logger}
	if cfg.NATS.URL != "" {
		a.Bus, err = eventbus.New(cfg.NATS.URL, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		sink = notify.NewPublisher(a.Bus.Publisher(), logger)
	}
	a.sink = notify.NewAsync(sink, notifyBuffer, logger)

	a.Bracket = bracketservice.NewBracketService(bracketdb.NewRepository(db), a.Clock, logger, obs.Metrics, obs.Tracer, db)
	a.Survivor = survivorservice.NewSurvivorService(survivordb.NewRepository(db), a.Bracket, a.sink, a.Clock, logger, obs.Metrics, obs.Tracer, db)
	a.Engine = engineservice.NewEngineService(a.Bracket, a.Survivor, a.Clock, logger, obs.Metrics, obs.Tracer, db)

	logger.InfoContext(ctx, "Application initialized",
		slog.Bool("clock_simulation", cfg.Clock.SimulationEnabled),
		slog.String("clock_store", cfg.Clock.Store),
		slog.Bool("bus", a.Bus != nil),
	)
	return a, nil
}

func (a *App) clockStore(ctx context.Context) (clock.OverrideStore, error) {
	if a.Config.Clock.Store != config.ClockStoreRedis {
		return clock.NewBunStore(a.DB), nil
	}
	client, err := clock.NewRedisClient(ctx, a.Config.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return clock.NewRedisStore(client), nil
}

// Close drains the notification sink, then closes the bus, Redis and the
// database.
func (a *App) Close() error {
	var errs []error
	if a.sink != nil {
		a.sink.Close()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bus: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db: %w", err))
		}
	}
	return errors.Join(errs...)
}

// logSink stands in for the bus when NATS is not configured.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Notify(ctx context.Context, n notify.Notification) {
	s.logger.InfoContext(ctx, "Notification (no bus)",
		slog.String("user_id", n.UserID),
		slog.String("entry_id", n.EntryID),
		slog.String("cause", string(n.Cause)),
	)
}
