package bracketservice

import (
	"context"
	"fmt"
	"log/slog"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (s *BracketService) PropagateWinner(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID) (bool, error) {
	return operation.Run(ctx, s.telemetry(), "PropagateWinner", gameID.String(), func(ctx context.Context) (bool, error) {
		game, err := s.GetGame(ctx, db, gameID)
		if err != nil {
			return false, err
		}
		if game.Edge == nil {
			s.logger.DebugContext(ctx, "No advancement edge, nothing to propagate",
				slog.String("game_id", gameID.String()),
			)
			return false, nil
		}

		changed, err := s.repo.SetSlot(ctx, db, game.Edge.Next, game.Edge.Slot, winnerID)
		if err != nil {
			return false, err
		}
		if changed {
			s.metrics.RecordSlotsPropagated(ctx, 1)
			s.logger.InfoContext(ctx, "Winner propagated",
				slog.String("game_id", gameID.String()),
				slog.String("next_game_id", game.Edge.Next.String()),
				slog.Int("slot", int(game.Edge.Slot)),
				slog.String("team_id", winnerID.String()),
			)
		}
		return changed, nil
	})
}

func (s *BracketService) ClearAdvancementFrom(ctx context.Context, db bun.IDB, roundCode string) (int, error) {
	return operation.Run(ctx, s.telemetry(), "ClearAdvancementFrom", roundCode, func(ctx context.Context) (int, error) {
		rounds, err := s.repo.ListRounds(ctx, db)
		if err != nil {
			return 0, err
		}
		after, ok := bracketdomain.RoundsAfter(rounds, roundCode)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrRoundNotFound, roundCode)
		}
		if len(after) == 0 {
			return 0, nil
		}

		ids := make([]uuid.UUID, len(after))
		for i, r := range after {
			ids[i] = r.ID
		}
		n, err := s.repo.ResetGames(ctx, db, ids, true)
		if err != nil {
			return 0, err
		}
		s.logger.InfoContext(ctx, "Advancement cleared",
			slog.String("after_round", roundCode),
			slog.Int("games", n),
		)
		return n, nil
	})
}

func (s *BracketService) Repropagate(ctx context.Context, db bun.IDB) (int, error) {
	return operation.Run(ctx, s.telemetry(), "Repropagate", "all", func(ctx context.Context) (int, error) {
		graph, err := s.Graph(ctx, db)
		if err != nil {
			return 0, err
		}

		filled := 0
		for _, fill := range graph.PendingFills() {
			changed, err := s.repo.SetSlot(ctx, db, fill.Target.Next, fill.Target.Slot, fill.TeamID)
			if err != nil {
				return filled, err
			}
			if changed {
				filled++
			}
		}
		s.metrics.RecordSlotsPropagated(ctx, filled)
		if filled > 0 {
			s.logger.InfoContext(ctx, "Slots refilled from final games", slog.Int("slots", filled))
		}
		return filled, nil
	})
}

func (s *BracketService) ResetRounds(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID) (RoundReset, error) {
	return operation.Run(ctx, s.telemetry(), "ResetRounds", fmt.Sprintf("%d rounds", len(roundIDs)), func(ctx context.Context) (RoundReset, error) {
		var out RoundReset
		if len(roundIDs) == 0 {
			return out, nil
		}

		rounds, err := s.ListRounds(ctx, db)
		if err != nil {
			return out, err
		}
		if len(rounds) == 0 {
			return out, nil
		}
		first := rounds[0].ID

		// The first round's slots are generation data; later rounds'
		// slots were written by propagation and go with the reset.
		var keepSlots, clearSlots []uuid.UUID
		for _, id := range roundIDs {
			games, err := s.repo.ListGamesByRound(ctx, db, id)
			if err != nil {
				return out, err
			}
			for _, g := range games {
				if loser, ok := g.Loser(); ok {
					out.LosingTeams = append(out.LosingTeams, loser)
				}
			}
			if id == first {
				keepSlots = append(keepSlots, id)
			} else {
				clearSlots = append(clearSlots, id)
			}
		}

		n, err := s.repo.ResetGames(ctx, db, keepSlots, false)
		if err != nil {
			return out, err
		}
		out.GamesReset += n
		n, err = s.repo.ResetGames(ctx, db, clearSlots, true)
		if err != nil {
			return out, err
		}
		out.GamesReset += n
		return out, nil
	})
}
