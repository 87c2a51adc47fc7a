package survivorservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Rewind deletes the picks of roundIDs, restores entries eliminated in them,
// reopens pools completed in them and drops those pools' champions. With all
// set, every pick, elimination and completion goes. db is the caller's
// transaction.
func (s *SurvivorService) Rewind(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (RewindResult, error) {
	scope := "all"
	if !all {
		scope = fmt.Sprintf("%d rounds", len(roundIDs))
	}
	return operation.Run(ctx, s.telemetry(), "Rewind", scope, func(ctx context.Context) (RewindResult, error) {
		var res RewindResult
		var err error

		res.PicksDeleted, err = s.repo.DeletePicksForRounds(ctx, db, roundIDs, all)
		if err != nil {
			return res, err
		}
		res.EntriesRestored, err = s.repo.RestoreEntriesEliminatedIn(ctx, db, roundIDs, all)
		if err != nil {
			return res, err
		}
		reopened, err := s.repo.ReopenPools(ctx, db, roundIDs, all)
		if err != nil {
			return res, err
		}
		res.PoolsReopened = len(reopened)
		res.ChampionsDeleted, err = s.repo.DeleteChampions(ctx, db, reopened)
		if err != nil {
			return res, err
		}

		s.logger.InfoContext(ctx, "Survivor state rewound",
			slog.String("scope", scope),
			slog.Int("picks_deleted", res.PicksDeleted),
			slog.Int("entries_restored", res.EntriesRestored),
			slog.Int("pools_reopened", res.PoolsReopened),
			slog.Int("champions_deleted", res.ChampionsDeleted),
		)
		return res, nil
	})
}
