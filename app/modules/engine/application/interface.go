package engineservice

import (
	"context"
	"io"
	"time"

	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	"github.com/google/uuid"
)

// ClockControl is the operator side of the clock.
type ClockControl interface {
	Set(ctx context.Context, at *time.Time) error
	Override(ctx context.Context) (*time.Time, error)
}

// Service is the engine's entry surface. The event handler, the job queue,
// the admin API and the CLI all call it.
type Service interface {
	// FinalizeGame records a result and runs grading, propagation and, when
	// the round is complete, the sweeps and the champion resolver. Replaying
	// with the same winner converges; a different winner is rejected.
	FinalizeGame(ctx context.Context, gameID, winnerID uuid.UUID, scores *Scores) (FinalizeResult, error)

	// SetSimulatedClock sets the operator instant, or returns to real time
	// when at is nil.
	SetSimulatedClock(ctx context.Context, at *time.Time) error

	// RewindRound undoes results, grading and resolution from a round on,
	// or for the whole tournament when scope is "all".
	RewindRound(ctx context.Context, scope string) (RewindSummary, error)

	// StartTournament moves open pools to active.
	StartTournament(ctx context.Context) (int, error)

	// Reconcile re-runs the idempotent steps for the latest complete round.
	Reconcile(ctx context.Context) (ReconcileResult, error)

	Status(ctx context.Context) (StatusReport, error)
	ExportStandings(ctx context.Context, w io.Writer) error
	LoadBracket(ctx context.Context, doc bracketservice.BracketDocument) (bracketservice.LoadSummary, error)
}
