package engineservice

import (
	"context"
	"fmt"
	"log/slog"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
)

// FinalizeGame runs the whole pipeline for one game result:
//
//  1. validate the winner against the game's slots
//  2. mark the game final (guarded on non-final)
//  3. grade picks and eliminate entries
//  4. propagate the winner into the next game
//  5. when the round is now complete, sweep missed picks, sweep entries
//     without picks left, and resolve champions
//
// Every step is guarded, so a replay with the same winner redoes only what
// an earlier run left undone.
func (s *EngineService) FinalizeGame(ctx context.Context, gameID, winnerID uuid.UUID, scores *Scores) (FinalizeResult, error) {
	return operation.Run(ctx, s.telemetry(), "FinalizeGame", gameID.String(), func(ctx context.Context) (FinalizeResult, error) {
		res := FinalizeResult{GameID: gameID, WinnerID: winnerID}

		game, err := s.bracket.GetGame(ctx, nil, gameID)
		if err != nil {
			return res, err
		}
		res.RoundID = game.RoundID

		loserID, err := validateResult(*game, winnerID)
		if err != nil {
			return res, err
		}
		res.LoserID = loserID

		if game.IsFinal() {
			res.Replayed = true
		} else {
			var s1, s2 *int
			if scores != nil {
				s1, s2 = &scores.Team1, &scores.Team2
			}
			marked, err := s.bracket.MarkGameFinal(ctx, nil, gameID, winnerID, s1, s2)
			if err != nil {
				return res, err
			}
			if !marked {
				// Another caller finalized it between our read and write.
				if err := s.checkRecordedWinner(ctx, gameID, winnerID); err != nil {
					return res, err
				}
				res.Replayed = true
			}
		}

		res.Grade, err = s.survivor.ProcessCompletedGame(ctx, game.RoundID, winnerID, loserID)
		if err != nil {
			return res, err
		}
		res.Propagated, err = s.bracket.PropagateWinner(ctx, nil, gameID, winnerID)
		if err != nil {
			return res, err
		}

		res.RoundComplete, err = s.bracket.RoundComplete(ctx, nil, game.RoundID)
		if err != nil {
			return res, err
		}
		if res.RoundComplete {
			if err := s.closeRound(ctx, game.RoundID, &res.MissedPicks, &res.NoPicksLeft, &res.Champions); err != nil {
				return res, err
			}
		}

		s.logger.InfoContext(ctx, "Game finalized",
			slog.String("game_id", gameID.String()),
			slog.String("round_id", game.RoundID.String()),
			slog.String("winner_id", winnerID.String()),
			slog.Bool("replayed", res.Replayed),
			slog.Bool("round_complete", res.RoundComplete),
			slog.Int("entries_eliminated", len(res.Grade.EntriesEliminated)),
		)
		return res, nil
	})
}

// validateResult returns the loser of game when winnerID can win it.
func validateResult(game bracketdomain.Game, winnerID uuid.UUID) (uuid.UUID, error) {
	if game.IsFinal() && game.WinnerID != nil && *game.WinnerID != winnerID {
		return uuid.Nil, fmt.Errorf("%w: game %s was won by %s", ErrWinnerConflict, game.ID, *game.WinnerID)
	}
	if !game.Populated() {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrGameNotReady, game.ID)
	}
	loser, ok := game.Opponent(winnerID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: team %s, game %s", ErrWinnerNotInGame, winnerID, game.ID)
	}
	return loser, nil
}

func (s *EngineService) checkRecordedWinner(ctx context.Context, gameID, winnerID uuid.UUID) error {
	game, err := s.bracket.GetGame(ctx, nil, gameID)
	if err != nil {
		return err
	}
	if game.WinnerID == nil || *game.WinnerID != winnerID {
		return fmt.Errorf("%w: game %s", ErrWinnerConflict, gameID)
	}
	return nil
}
