package bracketservice

import (
	"context"
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is never stored: every call derives it from the current game rows.

func (s *BracketService) RoundStatus(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bracketdomain.RoundStatus, error) {
	counts, err := s.repo.CountGameStatuses(ctx, db, roundID)
	if err != nil {
		return "", err
	}
	return bracketdomain.DeriveRoundStatus(counts), nil
}

func (s *BracketService) RoundDeadline(ctx context.Context, db bun.IDB, roundID uuid.UUID) (time.Time, bool, error) {
	games, err := s.repo.ListGamesByRound(ctx, db, roundID)
	if err != nil {
		return time.Time{}, false, err
	}
	deadline, ok := bracketdomain.RoundDeadline(games)
	return deadline, ok, nil
}

func (s *BracketService) CanMakePicks(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bool, error) {
	games, err := s.repo.ListGamesByRound(ctx, db, roundID)
	if err != nil {
		return false, err
	}
	return bracketdomain.CanMakePicks(s.clock.Now(ctx), games), nil
}

func (s *BracketService) UnlockedRoundIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error) {
	snap, err := s.Snapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, r := range snap.Rounds {
		if r.CanMakePicks {
			ids = append(ids, r.Round.ID)
		}
	}
	return ids, nil
}

func (s *BracketService) TournamentStatus(ctx context.Context, db bun.IDB) (bracketdomain.TournamentStatus, error) {
	snap, err := s.Snapshot(ctx, db)
	if err != nil {
		return "", err
	}
	return snap.Status, nil
}

func (s *BracketService) Snapshot(ctx context.Context, db bun.IDB) (Snapshot, error) {
	rounds, err := s.ListRounds(ctx, db)
	if err != nil {
		return Snapshot{}, err
	}
	games, err := s.repo.ListGames(ctx, db)
	if err != nil {
		return Snapshot{}, err
	}
	byRound := make(map[uuid.UUID][]bracketdomain.Game, len(rounds))
	for _, g := range games {
		byRound[g.RoundID] = append(byRound[g.RoundID], g)
	}

	now := s.clock.Now(ctx)
	snap := Snapshot{Now: now, Rounds: make([]RoundSnapshot, 0, len(rounds))}
	statuses := make([]bracketdomain.RoundStatus, 0, len(rounds))
	for _, r := range rounds {
		rg := byRound[r.ID]
		counts := bracketdomain.CountStatuses(rg)
		rs := RoundSnapshot{
			Round:        r,
			Counts:       counts,
			Status:       bracketdomain.DeriveRoundStatus(counts),
			CanMakePicks: bracketdomain.CanMakePicks(now, rg),
		}
		if d, ok := bracketdomain.RoundDeadline(rg); ok {
			rs.Deadline = &d
		}
		snap.Rounds = append(snap.Rounds, rs)
		statuses = append(statuses, rs.Status)
	}
	snap.Status = bracketdomain.DeriveTournamentStatus(statuses)
	return snap, nil
}
