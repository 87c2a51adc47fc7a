package engineadmin

import (
	"context"
	"io"
	"time"

	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	"github.com/google/uuid"
)

// FakeService is a programmable engineservice.Service.
type FakeService struct {
	FinalizeGameFunc      func(ctx context.Context, gameID, winnerID uuid.UUID, scores *engineservice.Scores) (engineservice.FinalizeResult, error)
	SetSimulatedClockFunc func(ctx context.Context, at *time.Time) error
	RewindRoundFunc       func(ctx context.Context, scope string) (engineservice.RewindSummary, error)
	StartTournamentFunc   func(ctx context.Context) (int, error)
	StatusFunc            func(ctx context.Context) (engineservice.StatusReport, error)
}

var _ engineservice.Service = (*FakeService)(nil)

func (f *FakeService) FinalizeGame(ctx context.Context, gameID, winnerID uuid.UUID, scores *engineservice.Scores) (engineservice.FinalizeResult, error) {
	if f.FinalizeGameFunc != nil {
		return f.FinalizeGameFunc(ctx, gameID, winnerID, scores)
	}
	return engineservice.FinalizeResult{GameID: gameID, WinnerID: winnerID}, nil
}

func (f *FakeService) SetSimulatedClock(ctx context.Context, at *time.Time) error {
	if f.SetSimulatedClockFunc != nil {
		return f.SetSimulatedClockFunc(ctx, at)
	}
	return nil
}

func (f *FakeService) RewindRound(ctx context.Context, scope string) (engineservice.RewindSummary, error) {
	if f.RewindRoundFunc != nil {
		return f.RewindRoundFunc(ctx, scope)
	}
	return engineservice.RewindSummary{Scope: scope}, nil
}

func (f *FakeService) StartTournament(ctx context.Context) (int, error) {
	if f.StartTournamentFunc != nil {
		return f.StartTournamentFunc(ctx)
	}
	return 0, nil
}

func (f *FakeService) Reconcile(ctx context.Context) (engineservice.ReconcileResult, error) {
	return engineservice.ReconcileResult{}, nil
}

func (f *FakeService) Status(ctx context.Context) (engineservice.StatusReport, error) {
	if f.StatusFunc != nil {
		return f.StatusFunc(ctx)
	}
	return engineservice.StatusReport{}, nil
}

func (f *FakeService) ExportStandings(ctx context.Context, w io.Writer) error { return nil }

func (f *FakeService) LoadBracket(ctx context.Context, doc bracketservice.BracketDocument) (bracketservice.LoadSummary, error) {
	return bracketservice.LoadSummary{}, nil
}
