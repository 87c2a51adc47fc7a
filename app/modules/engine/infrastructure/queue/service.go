package enginequeue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"
)

// QueueName is the dedicated queue for engine jobs.
const QueueName = "engine"

// QueueService defines the contract for engine job scheduling
type QueueService interface {
	// EnqueueFinalize queues a game result. It reports false when an
	// identical result is already queued.
	EnqueueFinalize(ctx context.Context, job FinalizeGameJob) (bool, error)
	// ListJobs returns the most recent engine jobs (for the status command)
	ListJobs(ctx context.Context, limit int) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Options tunes the River client.
type Options struct {
	MaxWorkers        int
	ReconcileInterval time.Duration
}

// Service runs the engine's River client: result jobs from the feed and
// the periodic reconcile pass.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics observability.EngineMetrics
}

// NewService creates the River-based queue service.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, opts Options, metrics observability.EngineMetrics, engine Engine) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewFinalizeGameWorker(ctxLogger, engine))
	river.AddWorker(workers, NewReconcileWorker(ctxLogger, engine))

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	cfg := &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
			QueueName:          {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	}
	if opts.ReconcileInterval > 0 {
		cfg.PeriodicJobs = []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(opts.ReconcileInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return ReconcileJob{}, &river.InsertOpts{Queue: QueueName}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), cfg)
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Engine queue service initialized",
		slog.Int("max_workers", maxWorkers),
		slog.Duration("reconcile_interval", opts.ReconcileInterval),
	)

	return &Service{
		client:  client,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}, nil
}

// Start starts the River client
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.Info("Engine queue service started")
	return nil
}

// Stop waits for running jobs, then closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.Info("Engine queue service stopped")
	return nil
}

func (s *Service) EnqueueFinalize(ctx context.Context, job FinalizeGameJob) (bool, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_finalize", "river")

	res, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue: QueueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.logger.Error("Failed to enqueue game result",
			slog.String("game_id", job.GameID.String()),
			slog.Any("error", err),
		)
		s.metrics.RecordOperationFailure(ctx, "enqueue_finalize", "river")
		return false, fmt.Errorf("failed to enqueue finalize job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_finalize", "river")
	s.metrics.RecordOperationDuration(ctx, "enqueue_finalize", "river", time.Since(start))
	s.logger.Info("Game result queued",
		slog.String("game_id", job.GameID.String()),
		slog.Int64("job_id", res.Job.ID),
		slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return !res.UniqueSkippedAsDuplicate, nil
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64          `bun:"id"`
		Kind        string         `bun:"kind"`
		State       string         `bun:"state"`
		Args        map[string]any `bun:"args"`
		ScheduledAt *time.Time     `bun:"scheduled_at"`
		CreatedAt   time.Time      `bun:"created_at"`
		Attempt     int16          `bun:"attempt"`
		MaxAttempts int16          `bun:"max_attempts"`
	}
	if limit <= 0 {
		limit = 20
	}

	var rows []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind IN (?, ?)", FinalizeGameJob{}.Kind(), ReconcileJob{}.Kind()).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query engine jobs: %w", err)
	}

	out := make([]JobInfo, len(rows))
	for i, r := range rows {
		info := JobInfo{
			ID:          r.ID,
			Kind:        r.Kind,
			State:       r.State,
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
			Attempt:     int(r.Attempt),
			MaxAttempts: int(r.MaxAttempts),
		}
		if r.ScheduledAt != nil {
			info.ScheduledAt = r.ScheduledAt.Format(time.RFC3339)
		}
		if id, ok := r.Args["game_id"].(string); ok {
			info.GameID = id
		}
		out[i] = info
	}
	return out, nil
}

// HealthCheck verifies the queue's pool answers.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
