package survivorservice

import (
	"context"
	"log/slog"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
)

// roundClosable re-reads the round's games; the sweeps never trust a flag
// computed earlier. A round can be closed once all of its games are final
// and until the next round leaves pre_round: after that alive counts
// include next-round results.
func (s *SurvivorService) roundClosable(ctx context.Context, roundID uuid.UUID) (bool, error) {
	complete, err := s.bracket.RoundComplete(ctx, nil, roundID)
	if err != nil {
		return false, err
	}
	if !complete {
		s.logger.DebugContext(ctx, "Round not complete, skipping",
			slog.String("round_id", roundID.String()),
		)
		return false, nil
	}
	next, err := s.bracket.NextRound(ctx, nil, roundID)
	if err != nil || next == nil {
		return err == nil, err
	}
	status, err := s.bracket.RoundStatus(ctx, nil, next.ID)
	if err != nil {
		return false, err
	}
	if status != bracketdomain.RoundPre {
		s.logger.DebugContext(ctx, "Next round already started, skipping",
			slog.String("round_id", roundID.String()),
			slog.String("next_round_id", next.ID.String()),
			slog.String("next_status", string(status)),
		)
		return false, nil
	}
	return true, nil
}

// SweepMissedPicks eliminates alive entries with no pick for the completed
// round.
func (s *SurvivorService) SweepMissedPicks(ctx context.Context, roundID uuid.UUID) (SweepResult, error) {
	return operation.Run(ctx, s.telemetry(), "SweepMissedPicks", roundID.String(), func(ctx context.Context) (SweepResult, error) {
		var res SweepResult
		complete, err := s.roundClosable(ctx, roundID)
		if err != nil || !complete {
			return res, err
		}
		res.Ran = true

		eliminated, err := s.repo.EliminateEntriesWithoutPick(ctx, nil, roundID)
		if err != nil {
			return res, err
		}
		res.Eliminated = entryIDs(eliminated)
		s.metrics.RecordEliminations(ctx, string(notify.CauseMissedPick), len(eliminated))
		s.notifyEliminated(ctx, eliminated, notify.CauseMissedPick, roundID)

		res.PicksDeleted, err = s.cascadeFuturePicks(ctx, res.Eliminated, roundID)
		if err != nil {
			return res, err
		}

		if len(eliminated) > 0 {
			s.logger.InfoContext(ctx, "Missed-pick sweep eliminated entries",
				slog.String("round_id", roundID.String()),
				slog.Int("entries", len(eliminated)),
			)
		}
		return res, nil
	})
}

// SweepNoAvailablePicks eliminates alive entries left without an unused
// team among the next round's populated games. The elimination is recorded
// against the completed round. Without a next round the pass is skipped.
func (s *SurvivorService) SweepNoAvailablePicks(ctx context.Context, roundID uuid.UUID) (SweepResult, error) {
	return operation.Run(ctx, s.telemetry(), "SweepNoAvailablePicks", roundID.String(), func(ctx context.Context) (SweepResult, error) {
		var res SweepResult
		complete, err := s.roundClosable(ctx, roundID)
		if err != nil || !complete {
			return res, err
		}

		next, err := s.bracket.NextRound(ctx, nil, roundID)
		if err != nil {
			return res, err
		}
		if next == nil {
			s.logger.DebugContext(ctx, "Last round, no availability to check",
				slog.String("round_id", roundID.String()),
			)
			return res, nil
		}

		available, err := s.bracket.AvailableTeams(ctx, nil, next.ID)
		if err != nil {
			return res, err
		}
		if len(available) == 0 {
			// Propagation has not filled the next round; eliminating against
			// an empty set would wipe out every entry.
			s.logger.WarnContext(ctx, "Next round has no populated games, skipping",
				slog.String("round_id", roundID.String()),
				slog.String("next_round_id", next.ID.String()),
			)
			return res, nil
		}
		res.Ran = true

		alive, err := s.repo.ListAliveEntries(ctx, nil)
		if err != nil {
			return res, err
		}
		if len(alive) == 0 {
			return res, nil
		}
		picks, err := s.repo.ListPicksByEntries(ctx, nil, entryIDs(alive))
		if err != nil {
			return res, err
		}
		byEntry := make(map[uuid.UUID][]survivordomain.Pick, len(alive))
		for _, p := range picks {
			byEntry[p.EntryID] = append(byEntry[p.EntryID], p)
		}

		var stuck []survivordomain.Elimination
		for _, e := range alive {
			if !survivordomain.HasAvailablePick(available, byEntry[e.ID], next.ID) {
				stuck = append(stuck, survivordomain.Elimination{
					EntryID: e.ID,
					Cause:   survivordomain.CauseNoAvailablePicks,
					RoundID: roundID,
				})
			}
		}
		if len(stuck) == 0 {
			return res, nil
		}

		eliminated, err := s.repo.EliminateEntries(ctx, nil, stuck)
		if err != nil {
			return res, err
		}
		res.Eliminated = entryIDs(eliminated)
		s.metrics.RecordEliminations(ctx, string(notify.CauseNoAvailablePicks), len(eliminated))
		s.notifyEliminated(ctx, eliminated, notify.CauseNoAvailablePicks, roundID)

		res.PicksDeleted, err = s.cascadeFuturePicks(ctx, res.Eliminated, roundID)
		if err != nil {
			return res, err
		}

		s.logger.InfoContext(ctx, "No-available-picks sweep eliminated entries",
			slog.String("round_id", roundID.String()),
			slog.String("next_round_id", next.ID.String()),
			slog.Int("available_teams", len(available)),
			slog.Int("entries", len(eliminated)),
		)
		return res, nil
	})
}
