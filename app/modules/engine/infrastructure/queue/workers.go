package enginequeue

import (
	"context"
	"errors"
	"log/slog"

	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Engine is the slice of the engine service the workers drive.
type Engine interface {
	FinalizeGame(ctx context.Context, gameID, winnerID uuid.UUID, scores *engineservice.Scores) (engineservice.FinalizeResult, error)
	Reconcile(ctx context.Context) (engineservice.ReconcileResult, error)
}

// FinalizeGameWorker runs the result pipeline for one queued game.
type FinalizeGameWorker struct {
	river.WorkerDefaults[FinalizeGameJob]
	engine Engine
	logger *slog.Logger
}

func NewFinalizeGameWorker(logger *slog.Logger, engine Engine) *FinalizeGameWorker {
	return &FinalizeGameWorker{engine: engine, logger: logger}
}

func (w *FinalizeGameWorker) Work(ctx context.Context, job *river.Job[FinalizeGameJob]) error {
	ctx = operation.WithCorrelationID(ctx, job.Args.GameID.String())
	logger := w.logger.With(
		slog.Int64("job_id", job.ID),
		slog.String("game_id", job.Args.GameID.String()),
		slog.Int("attempt", job.Attempt),
	)

	var scores *engineservice.Scores
	if job.Args.Team1Score != nil && job.Args.Team2Score != nil {
		scores = &engineservice.Scores{Team1: *job.Args.Team1Score, Team2: *job.Args.Team2Score}
	}

	res, err := w.engine.FinalizeGame(ctx, job.Args.GameID, job.Args.WinnerID, scores)
	if err != nil {
		// A result that can never apply is not worth retrying.
		if permanent(err) {
			logger.WarnContext(ctx, "Discarding game result", slog.Any("error", err))
			return river.JobCancel(err)
		}
		logger.ErrorContext(ctx, "Finalize job failed", slog.Any("error", err))
		return err
	}

	logger.InfoContext(ctx, "Finalize job completed",
		slog.Bool("replayed", res.Replayed),
		slog.Bool("round_complete", res.RoundComplete),
	)
	return nil
}

// ReconcileWorker runs the periodic reconcile pass.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJob]
	engine Engine
	logger *slog.Logger
}

func NewReconcileWorker(logger *slog.Logger, engine Engine) *ReconcileWorker {
	return &ReconcileWorker{engine: engine, logger: logger}
}

func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJob]) error {
	res, err := w.engine.Reconcile(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Reconcile job failed", slog.Int64("job_id", job.ID), slog.Any("error", err))
		return err
	}
	if res.RoundID != nil {
		w.logger.DebugContext(ctx, "Reconcile job completed",
			slog.String("round_id", res.RoundID.String()),
			slog.Int("slots_refilled", res.SlotsRefilled),
		)
	}
	return nil
}

// permanent reports results that will never apply. ErrGameNotReady is
// retried: the feeding game's result may still be on its way.
func permanent(err error) bool {
	return errors.Is(err, engineservice.ErrWinnerConflict) ||
		errors.Is(err, engineservice.ErrWinnerNotInGame) ||
		errors.Is(err, bracketservice.ErrGameNotFound)
}
