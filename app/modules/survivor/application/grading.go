package survivorservice

import (
	"context"
	"log/slog"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
)

// ProcessCompletedGame grades one final game: picks on the winner are
// correct, picks on the loser incorrect; the loser is eliminated, entries
// holding the loser are eliminated with wrong_pick, and their picks for
// rounds still open are deleted.
//
// No transaction spans the steps. Each write is guarded, so a rerun after a
// partial failure redoes only what is missing. Notifications go out only for
// entries this call eliminated.
func (s *SurvivorService) ProcessCompletedGame(ctx context.Context, roundID, winnerID, loserID uuid.UUID) (GradeResult, error) {
	return operation.Run(ctx, s.telemetry(), "ProcessCompletedGame", roundID.String(), func(ctx context.Context) (GradeResult, error) {
		var res GradeResult
		var err error

		res.PicksCorrect, err = s.repo.GradePicks(ctx, nil, roundID, winnerID, true)
		if err != nil {
			return res, err
		}
		res.PicksIncorrect, err = s.repo.GradePicks(ctx, nil, roundID, loserID, false)
		if err != nil {
			return res, err
		}
		s.metrics.RecordPicksGraded(ctx, "correct", res.PicksCorrect)
		s.metrics.RecordPicksGraded(ctx, "incorrect", res.PicksIncorrect)

		res.TeamEliminated, err = s.bracket.EliminateTeam(ctx, nil, loserID)
		if err != nil {
			return res, err
		}

		eliminated, err := s.repo.EliminateEntriesWithIncorrectPick(ctx, nil, roundID, loserID)
		if err != nil {
			return res, err
		}
		res.EntriesEliminated = entryIDs(eliminated)
		s.metrics.RecordEliminations(ctx, string(notify.CauseWrongPick), len(eliminated))
		s.notifyEliminated(ctx, eliminated, notify.CauseWrongPick, roundID)

		// Every eliminated holder of the losing pick, not just this call's:
		// a previous run may have died between elimination and cleanup.
		holders, err := s.repo.ListEntriesWithIncorrectPick(ctx, nil, roundID, loserID)
		if err != nil {
			return res, err
		}
		res.PicksDeleted, err = s.cascadeFuturePicks(ctx, holders, roundID)
		if err != nil {
			return res, err
		}

		s.logger.InfoContext(ctx, "Game graded",
			slog.String("round_id", roundID.String()),
			slog.String("winner_id", winnerID.String()),
			slog.String("loser_id", loserID.String()),
			slog.Int("picks_correct", res.PicksCorrect),
			slog.Int("picks_incorrect", res.PicksIncorrect),
			slog.Int("entries_eliminated", len(eliminated)),
			slog.Int("picks_deleted", res.PicksDeleted),
		)
		return res, nil
	})
}
