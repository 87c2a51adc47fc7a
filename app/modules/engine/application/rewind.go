package engineservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// rewindScope is the rounds a rewind touches: the target round and every
// round after it, since clearing advancement empties the later rounds too.
type rewindScope struct {
	all      bool
	target   *bracketdomain.Round
	roundIDs []uuid.UUID
}

// RewindRound undoes results from a round on. scope is a round id, a round
// code, or "all". Everything but the clock runs in one transaction:
//
//  1. reset the scoped games to scheduled, collecting the teams that lost
//  2. restore those teams (for "all", every team)
//  3. delete the scoped picks, restore entries eliminated in scope, reopen
//     pools completed in scope and drop their champions
//  4. clear advancement after the target round, then refill every slot a
//     final game still owes
//
// The simulated clock is cleared after commit.
func (s *EngineService) RewindRound(ctx context.Context, scope string) (RewindSummary, error) {
	return operation.Run(ctx, s.telemetry(), "RewindRound", scope, func(ctx context.Context) (RewindSummary, error) {
		summary, err := operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (RewindSummary, error) {
			return s.rewind(ctx, tx, scope)
		})
		if err != nil {
			return summary, err
		}

		if err := s.clock.Set(ctx, nil); err != nil {
			return summary, err
		}

		s.logger.InfoContext(ctx, "Rewound",
			slog.String("scope", summary.Scope),
			slog.Int("games_reset", summary.GamesReset),
			slog.Int("teams_restored", summary.TeamsRestored),
			slog.Int("picks_deleted", summary.PicksDeleted),
			slog.Int("entries_restored", summary.EntriesRestored),
			slog.Int("pools_reopened", summary.PoolsReopened),
			slog.Int("slots_refilled", summary.SlotsRefilled),
		)
		return summary, nil
	})
}

func (s *EngineService) rewind(ctx context.Context, tx bun.IDB, scope string) (RewindSummary, error) {
	summary := RewindSummary{Scope: scope}
	sc, err := s.resolveScope(ctx, tx, scope)
	if err != nil {
		return summary, err
	}
	if sc.target != nil {
		summary.Scope = sc.target.Code
	}

	reset, err := s.bracket.ResetRounds(ctx, tx, sc.roundIDs)
	if err != nil {
		return summary, err
	}
	summary.GamesReset = reset.GamesReset

	// An empty id list restores every team, which is what "all" wants and
	// what a round without results must not get.
	if sc.all || len(reset.LosingTeams) > 0 {
		var restore []uuid.UUID
		if !sc.all {
			restore = reset.LosingTeams
		}
		summary.TeamsRestored, err = s.bracket.RestoreTeams(ctx, tx, restore)
		if err != nil {
			return summary, err
		}
	}

	undone, err := s.survivor.Rewind(ctx, tx, sc.roundIDs, sc.all)
	if err != nil {
		return summary, err
	}
	summary.PicksDeleted = undone.PicksDeleted
	summary.EntriesRestored = undone.EntriesRestored
	summary.PoolsReopened = undone.PoolsReopened

	if sc.target != nil {
		if _, err := s.bracket.ClearAdvancementFrom(ctx, tx, sc.target.Code); err != nil {
			return summary, err
		}
	}
	summary.SlotsRefilled, err = s.bracket.Repropagate(ctx, tx)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *EngineService) resolveScope(ctx context.Context, tx bun.IDB, scope string) (rewindScope, error) {
	var sc rewindScope
	rounds, err := s.bracket.ListRounds(ctx, tx)
	if err != nil {
		return sc, err
	}
	bracketdomain.SortRounds(rounds)

	scope = strings.TrimSpace(scope)
	if strings.EqualFold(scope, ScopeAll) {
		sc.all = true
		for _, r := range rounds {
			sc.roundIDs = append(sc.roundIDs, r.ID)
		}
		return sc, nil
	}

	idx := -1
	if id, err := uuid.Parse(scope); err == nil {
		for i, r := range rounds {
			if r.ID == id {
				idx = i
			}
		}
	} else {
		for i, r := range rounds {
			if strings.EqualFold(r.Code, scope) {
				idx = i
			}
		}
	}
	if idx < 0 {
		return sc, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	target := rounds[idx]
	sc.target = &target
	for _, r := range rounds[idx:] {
		sc.roundIDs = append(sc.roundIDs, r.ID)
	}
	return sc, nil
}
