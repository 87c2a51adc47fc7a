package survivorservice

import (
	"context"
	"log/slog"
	"strconv"

	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResolveChampions decides every active pool once roundID is complete and
// before the next round starts. One survivor is the champion. No survivors means the round
// emptied the pool: the entries it eliminated in the highest tier are
// restored and declared co-champions. More than one survivor leaves the pool
// running.
//
// Each pool's restore, champion rows and completion commit together; a pool
// already complete is skipped, so a rerun picks up where a failed one
// stopped.
func (s *SurvivorService) ResolveChampions(ctx context.Context, roundID uuid.UUID) (ResolveResult, error) {
	return operation.Run(ctx, s.telemetry(), "ResolveChampions", roundID.String(), func(ctx context.Context) (ResolveResult, error) {
		var res ResolveResult
		complete, err := s.roundClosable(ctx, roundID)
		if err != nil || !complete {
			return res, err
		}
		res.Ran = true

		pools, err := s.repo.ListPools(ctx, nil, survivordomain.PoolActive)
		if err != nil {
			return res, err
		}
		for _, pool := range pools {
			pr, err := s.resolvePool(ctx, pool, roundID)
			if err != nil {
				return res, err
			}
			if pr.Kind != survivordomain.ResolutionNone {
				res.Pools = append(res.Pools, pr)
			}
		}
		return res, nil
	})
}

func (s *SurvivorService) resolvePool(ctx context.Context, pool survivordomain.Pool, roundID uuid.UUID) (PoolResolution, error) {
	pr := PoolResolution{PoolID: pool.ID, Kind: survivordomain.ResolutionNone}

	entries, err := s.repo.ListEntries(ctx, nil, pool.ID)
	if err != nil {
		return pr, err
	}
	if len(entries) == 0 {
		return pr, nil
	}
	var alive, eliminated []survivordomain.Entry
	for _, e := range entries {
		if e.Eliminated {
			eliminated = append(eliminated, e)
		} else {
			alive = append(alive, e)
		}
	}

	verdict := survivordomain.Resolve(roundID, alive, eliminated)
	if verdict.Kind == survivordomain.ResolutionNone {
		return pr, nil
	}
	winners := entryIDs(verdict.Entries)

	completed, err := operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (bool, error) {
		if verdict.Kind == survivordomain.ResolutionCoChampions {
			if _, err := s.repo.RestoreEntries(ctx, tx, winners); err != nil {
				return false, err
			}
		}
		now := s.clock.Now(ctx)
		champions := make([]survivordomain.Champion, len(verdict.Entries))
		for i, e := range verdict.Entries {
			champions[i] = survivordomain.Champion{
				PoolID:    pool.ID,
				EntryID:   e.ID,
				UserID:    e.UserID,
				RoundID:   roundID,
				CreatedAt: now,
			}
		}
		if _, err := s.repo.InsertChampions(ctx, tx, champions); err != nil {
			return false, err
		}
		return s.repo.CompletePool(ctx, tx, pool.ID, roundID)
	})
	if err != nil {
		return pr, err
	}
	if !completed {
		return pr, nil
	}

	pr.Kind = verdict.Kind
	pr.EntryIDs = winners

	cause := notify.CauseChampion
	if verdict.Kind == survivordomain.ResolutionCoChampions {
		cause = notify.CauseCoChampion
	}
	s.metrics.RecordChampions(ctx, string(verdict.Kind), len(winners))
	for _, e := range verdict.Entries {
		s.sink.Notify(ctx, notify.Notification{
			UserID:  e.UserID.String(),
			EntryID: e.ID.String(),
			PoolID:  pool.ID.String(),
			Cause:   cause,
			Context: map[string]string{
				"entry_name": e.Name,
				"pool_name":  pool.Name,
				"round_id":   roundID.String(),
				"winners":    strconv.Itoa(len(winners)),
			},
		})
	}

	s.logger.InfoContext(ctx, "Pool resolved",
		slog.String("pool_id", pool.ID.String()),
		slog.String("kind", string(verdict.Kind)),
		slog.Int("winners", len(winners)),
		slog.String("round_id", roundID.String()),
	)
	return pr, nil
}
