package bracketdb

import (
	"context"
	"sort"
	"sync"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for testing. It applies the same
// guards as the SQL implementation, so re-applied writes report no change.
// Any XFn field overrides the in-memory behavior of X.
type FakeRepository struct {
	mu     sync.Mutex
	trace  []string
	teams  map[uuid.UUID]bracketdomain.Team
	rounds map[uuid.UUID]bracketdomain.Round
	games  map[uuid.UUID]bracketdomain.Game
	order  []uuid.UUID

	ListGamesFn     func(ctx context.Context, db bun.IDB) ([]bracketdomain.Game, error)
	GetGameFn       func(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*bracketdomain.Game, error)
	MarkGameFinalFn func(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID, team1Score, team2Score *int) (bool, error)
	SetSlotFn       func(ctx context.Context, db bun.IDB, gameID uuid.UUID, slot bracketdomain.Slot, teamID uuid.UUID) (bool, error)
	EliminateTeamFn func(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error)
	ResetGamesFn    func(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, clearSlots bool) (int, error)
}

// NewFakeRepository returns an empty in-memory repository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		teams:  make(map[uuid.UUID]bracketdomain.Team),
		rounds: make(map[uuid.UUID]bracketdomain.Round),
		games:  make(map[uuid.UUID]bracketdomain.Game),
	}
}

var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Team returns the stored team for assertions.
func (f *FakeRepository) Team(id uuid.UUID) bracketdomain.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teams[id]
}

// Game returns the stored game for assertions.
func (f *FakeRepository) Game(id uuid.UUID) bracketdomain.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneGame(f.games[id])
}

// PutGame overwrites a stored game; tests use it to stage states that the
// guarded writes would refuse.
func (f *FakeRepository) PutGame(g bracketdomain.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[g.ID]; !ok {
		f.order = append(f.order, g.ID)
	}
	f.games[g.ID] = cloneGame(g)
}

func cloneGame(g bracketdomain.Game) bracketdomain.Game {
	cp := func(p *uuid.UUID) *uuid.UUID {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	cpi := func(p *int) *int {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	g.Team1ID = cp(g.Team1ID)
	g.Team2ID = cp(g.Team2ID)
	g.WinnerID = cp(g.WinnerID)
	g.Team1Score = cpi(g.Team1Score)
	g.Team2Score = cpi(g.Team2Score)
	if g.Edge != nil {
		e := *g.Edge
		g.Edge = &e
	}
	return g
}

func (f *FakeRepository) ListTeams(ctx context.Context, db bun.IDB) ([]bracketdomain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTeams")
	out := make([]bracketdomain.Team, 0, len(f.teams))
	for _, t := range f.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Seed < out[j].Seed
	})
	return out, nil
}

func (f *FakeRepository) GetTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (*bracketdomain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTeam")
	t, ok := f.teams[teamID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (f *FakeRepository) ListRounds(ctx context.Context, db bun.IDB) ([]bracketdomain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListRounds")
	out := make([]bracketdomain.Round, 0, len(f.rounds))
	for _, r := range f.rounds {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	bracketdomain.SortRounds(out)
	return out, nil
}

func (f *FakeRepository) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRound")
	r, ok := f.rounds[roundID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (f *FakeRepository) GetRoundByCode(ctx context.Context, db bun.IDB, code string) (*bracketdomain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRoundByCode")
	for _, r := range f.rounds {
		if r.Code == code {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) ListGames(ctx context.Context, db bun.IDB) ([]bracketdomain.Game, error) {
	if f.ListGamesFn != nil {
		return f.ListGamesFn(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListGames")
	out := make([]bracketdomain.Game, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, cloneGame(f.games[id]))
	}
	return out, nil
}

func (f *FakeRepository) ListGamesByRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]bracketdomain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListGamesByRound")
	var out []bracketdomain.Game
	for _, id := range f.order {
		if g := f.games[id]; g.RoundID == roundID {
			out = append(out, cloneGame(g))
		}
	}
	return out, nil
}

func (f *FakeRepository) GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*bracketdomain.Game, error) {
	if f.GetGameFn != nil {
		return f.GetGameFn(ctx, db, gameID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetGame")
	g, ok := f.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	g = cloneGame(g)
	return &g, nil
}

func (f *FakeRepository) CountGameStatuses(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bracketdomain.StatusCounts, error) {
	games, err := f.ListGamesByRound(ctx, db, roundID)
	if err != nil {
		return bracketdomain.StatusCounts{}, err
	}
	return bracketdomain.CountStatuses(games), nil
}

func (f *FakeRepository) MarkGameFinal(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID, team1Score, team2Score *int) (bool, error) {
	if f.MarkGameFinalFn != nil {
		return f.MarkGameFinalFn(ctx, db, gameID, winnerID, team1Score, team2Score)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MarkGameFinal")
	g, ok := f.games[gameID]
	if !ok || g.Status == bracketdomain.GameFinal {
		return false, nil
	}
	w := winnerID
	g.Status = bracketdomain.GameFinal
	g.WinnerID = &w
	g.Team1Score = team1Score
	g.Team2Score = team2Score
	f.games[gameID] = cloneGame(g)
	return true, nil
}

func (f *FakeRepository) SetGameInProgress(ctx context.Context, db bun.IDB, gameID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetGameInProgress")
	g, ok := f.games[gameID]
	if !ok || g.Status != bracketdomain.GameScheduled {
		return false, nil
	}
	g.Status = bracketdomain.GameInProgress
	f.games[gameID] = g
	return true, nil
}

func (f *FakeRepository) SetSlot(ctx context.Context, db bun.IDB, gameID uuid.UUID, slot bracketdomain.Slot, teamID uuid.UUID) (bool, error) {
	if f.SetSlotFn != nil {
		return f.SetSlotFn(ctx, db, gameID, slot, teamID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetSlot")
	g, ok := f.games[gameID]
	if !ok {
		return false, nil
	}
	if cur := g.TeamIn(slot); cur != nil && *cur == teamID {
		return false, nil
	}
	t := teamID
	switch slot {
	case bracketdomain.Slot1:
		g.Team1ID = &t
	case bracketdomain.Slot2:
		g.Team2ID = &t
	default:
		return false, nil
	}
	f.games[gameID] = g
	return true, nil
}

func (f *FakeRepository) EliminateTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error) {
	if f.EliminateTeamFn != nil {
		return f.EliminateTeamFn(ctx, db, teamID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EliminateTeam")
	t, ok := f.teams[teamID]
	if !ok || t.Eliminated {
		return false, nil
	}
	t.Eliminated = true
	f.teams[teamID] = t
	return true, nil
}

func (f *FakeRepository) RestoreTeams(ctx context.Context, db bun.IDB, teamIDs []uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RestoreTeams")
	want := make(map[uuid.UUID]bool, len(teamIDs))
	for _, id := range teamIDs {
		want[id] = true
	}
	n := 0
	for id, t := range f.teams {
		if !t.Eliminated || (len(want) > 0 && !want[id]) {
			continue
		}
		t.Eliminated = false
		f.teams[id] = t
		n++
	}
	return n, nil
}

func (f *FakeRepository) ResetGames(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, clearSlots bool) (int, error) {
	if f.ResetGamesFn != nil {
		return f.ResetGamesFn(ctx, db, roundIDs, clearSlots)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ResetGames")
	in := make(map[uuid.UUID]bool, len(roundIDs))
	for _, id := range roundIDs {
		in[id] = true
	}
	n := 0
	for _, id := range f.order {
		g := f.games[id]
		if !in[g.RoundID] {
			continue
		}
		g.Status = bracketdomain.GameScheduled
		g.WinnerID, g.Team1Score, g.Team2Score = nil, nil, nil
		if clearSlots {
			g.Team1ID, g.Team2ID = nil, nil
		}
		f.games[id] = g
		n++
	}
	return n, nil
}

func (f *FakeRepository) InsertBracket(ctx context.Context, db bun.IDB, teams []bracketdomain.Team, rounds []bracketdomain.Round, games []bracketdomain.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertBracket")
	for _, t := range teams {
		f.teams[t.ID] = t
	}
	for _, r := range rounds {
		f.rounds[r.ID] = r
	}
	for _, g := range games {
		if _, ok := f.games[g.ID]; !ok {
			f.order = append(f.order, g.ID)
		}
		f.games[g.ID] = cloneGame(g)
	}
	return nil
}
