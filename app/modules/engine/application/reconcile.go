package engineservice

import (
	"context"
	"log/slog"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
)

// closeRound runs the two sweeps and the resolver, in that order. Each
// re-checks that the round is complete and the next one has not started.
func (s *EngineService) closeRound(ctx context.Context, roundID uuid.UUID, missed, noPicks *survivorservice.SweepResult, champions *survivorservice.ResolveResult) error {
	var err error
	if *missed, err = s.survivor.SweepMissedPicks(ctx, roundID); err != nil {
		return err
	}
	if *noPicks, err = s.survivor.SweepNoAvailablePicks(ctx, roundID); err != nil {
		return err
	}
	if *champions, err = s.survivor.ResolveChampions(ctx, roundID); err != nil {
		return err
	}
	return nil
}

// Reconcile finds the latest complete round and re-runs grading for its
// games, propagation for every final game, and the round-closing passes
// unless the next round has already started.
// All of it is idempotent; a pass that finds everything done changes
// nothing.
func (s *EngineService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	return operation.Run(ctx, s.telemetry(), "Reconcile", "latest", func(ctx context.Context) (ReconcileResult, error) {
		var res ReconcileResult
		snap, err := s.bracket.Snapshot(ctx, nil)
		if err != nil {
			return res, err
		}
		var latest *bracketdomain.Round
		nextStarted := false
		for i := range snap.Rounds {
			if snap.Rounds[i].Status == bracketdomain.RoundComplete {
				latest = &snap.Rounds[i].Round
				nextStarted = i+1 < len(snap.Rounds) && snap.Rounds[i+1].Status != bracketdomain.RoundPre
			}
		}
		if latest == nil {
			s.logger.DebugContext(ctx, "No complete round to reconcile")
			return res, nil
		}
		id := latest.ID
		res.RoundID = &id

		graph, err := s.bracket.Graph(ctx, nil)
		if err != nil {
			return res, err
		}
		for _, g := range graph.Games() {
			if g.RoundID != id || !g.IsFinal() || g.WinnerID == nil {
				continue
			}
			loser, ok := g.Loser()
			if !ok {
				continue
			}
			if _, err := s.survivor.ProcessCompletedGame(ctx, id, *g.WinnerID, loser); err != nil {
				return res, err
			}
			res.GamesRegraded++
		}

		res.SlotsRefilled, err = s.bracket.Repropagate(ctx, nil)
		if err != nil {
			return res, err
		}
		if nextStarted {
			// The round was closed before the next one tipped off; alive
			// counts now include next-round results.
			res.CloseSkipped = true
		} else if err := s.closeRound(ctx, id, &res.MissedPicks, &res.NoPicksLeft, &res.Champions); err != nil {
			return res, err
		}

		s.logger.InfoContext(ctx, "Reconciled",
			slog.String("round_id", id.String()),
			slog.String("round_code", latest.Code),
			slog.Int("games", res.GamesRegraded),
			slog.Int("slots_refilled", res.SlotsRefilled),
			slog.Bool("close_skipped", res.CloseSkipped),
			slog.Int("eliminated", len(res.MissedPicks.Eliminated)+len(res.NoPicksLeft.Eliminated)),
			slog.Int("pools_resolved", len(res.Champions.Pools)),
		)
		return res, nil
	})
}
