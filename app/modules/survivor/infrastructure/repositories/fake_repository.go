package survivordb

import (
	"context"
	"sort"
	"sync"
	"time"

	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for testing. It honors the same
// guards as the SQL implementation. Any XFn field overrides the in-memory
// behavior of X, which lets tests inject failures mid-pipeline.
type FakeRepository struct {
	mu        sync.Mutex
	trace     []string
	pools     map[uuid.UUID]survivordomain.Pool
	poolOrder []uuid.UUID
	champions map[uuid.UUID][]survivordomain.Champion
	entries   map[uuid.UUID]survivordomain.Entry
	picks     map[uuid.UUID]survivordomain.Pick

	GradePicksFn                        func(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID, correct bool) (int, error)
	EliminateEntriesWithIncorrectPickFn func(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]survivordomain.Entry, error)
	DeletePicksFn                       func(ctx context.Context, db bun.IDB, entryIDs, roundIDs []uuid.UUID) (int, error)
	ListAliveEntriesFn                  func(ctx context.Context, db bun.IDB) ([]survivordomain.Entry, error)
	CompletePoolFn                      func(ctx context.Context, db bun.IDB, poolID, roundID uuid.UUID) (bool, error)
}

// NewFakeRepository returns an empty in-memory repository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		pools:     make(map[uuid.UUID]survivordomain.Pool),
		champions: make(map[uuid.UUID][]survivordomain.Champion),
		entries:   make(map[uuid.UUID]survivordomain.Entry),
		picks:     make(map[uuid.UUID]survivordomain.Pick),
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

// Entry returns the stored entry for assertions.
func (f *FakeRepository) Entry(id uuid.UUID) survivordomain.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[id]
}

// Pick returns the stored pick of entryID for roundID.
func (f *FakeRepository) Pick(entryID, roundID uuid.UUID) (survivordomain.Pick, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.picks {
		if p.EntryID == entryID && p.RoundID == roundID {
			return p, true
		}
	}
	return survivordomain.Pick{}, false
}

// AllPicks returns every stored pick.
func (f *FakeRepository) AllPicks() []survivordomain.Pick {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]survivordomain.Pick, 0, len(f.picks))
	for _, p := range f.picks {
		out = append(out, p)
	}
	return out
}

func (f *FakeRepository) poolInPlay(poolID uuid.UUID) bool {
	p, ok := f.pools[poolID]
	return ok && p.Status == survivordomain.PoolActive
}

func (f *FakeRepository) eliminate(id uuid.UUID, cause survivordomain.EliminationCause, roundID uuid.UUID) (survivordomain.Entry, bool) {
	e, ok := f.entries[id]
	if !ok || e.Eliminated || !f.poolInPlay(e.PoolID) {
		return survivordomain.Entry{}, false
	}
	c, r := cause, roundID
	e.Eliminated = true
	e.Cause = &c
	e.EliminationRoundID = &r
	f.entries[id] = e
	return e, true
}

func (f *FakeRepository) restore(e survivordomain.Entry) survivordomain.Entry {
	e.Eliminated = false
	e.Cause = nil
	e.EliminationRoundID = nil
	return e
}

func sortEntries(entries []survivordomain.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PoolID != entries[j].PoolID {
			return entries[i].PoolID.String() < entries[j].PoolID.String()
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// --- Pools ---

func (f *FakeRepository) GetPool(ctx context.Context, db bun.IDB, poolID uuid.UUID) (*survivordomain.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetPool")
	p, ok := f.pools[poolID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (f *FakeRepository) ListPools(ctx context.Context, db bun.IDB, statuses ...survivordomain.PoolStatus) ([]survivordomain.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPools")
	want := make(map[survivordomain.PoolStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []survivordomain.Pool
	for _, id := range f.poolOrder {
		p := f.pools[id]
		if len(want) == 0 || want[p.Status] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeRepository) ActivatePools(ctx context.Context, db bun.IDB) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ActivatePools")
	n := 0
	for id, p := range f.pools {
		if p.Status == survivordomain.PoolOpen {
			p.Status = survivordomain.PoolActive
			f.pools[id] = p
			n++
		}
	}
	return n, nil
}

func (f *FakeRepository) CompletePool(ctx context.Context, db bun.IDB, poolID, roundID uuid.UUID) (bool, error) {
	if f.CompletePoolFn != nil {
		return f.CompletePoolFn(ctx, db, poolID, roundID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CompletePool")
	p, ok := f.pools[poolID]
	if !ok || p.Status == survivordomain.PoolComplete {
		return false, nil
	}
	r := roundID
	p.Status = survivordomain.PoolComplete
	p.CompletedRoundID = &r
	f.pools[poolID] = p
	return true, nil
}

func (f *FakeRepository) ReopenPools(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReopenPools")
	rounds := idSet(roundIDs)
	var ids []uuid.UUID
	for _, id := range f.poolOrder {
		p := f.pools[id]
		switch {
		case all && p.Status != survivordomain.PoolOpen:
		case !all && p.Status == survivordomain.PoolComplete && p.CompletedRoundID != nil && rounds[*p.CompletedRoundID]:
		default:
			continue
		}
		p.Status = survivordomain.PoolActive
		p.CompletedRoundID = nil
		f.pools[id] = p
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *FakeRepository) InsertChampions(ctx context.Context, db bun.IDB, champions []survivordomain.Champion) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertChampions")
	n := 0
	for _, c := range champions {
		dup := false
		for _, existing := range f.champions[c.PoolID] {
			if existing.EntryID == c.EntryID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		f.champions[c.PoolID] = append(f.champions[c.PoolID], c)
		n++
	}
	return n, nil
}

func (f *FakeRepository) ListChampions(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Champion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListChampions")
	return append([]survivordomain.Champion(nil), f.champions[poolID]...), nil
}

func (f *FakeRepository) DeleteChampions(ctx context.Context, db bun.IDB, poolIDs []uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteChampions")
	n := 0
	for _, id := range poolIDs {
		n += len(f.champions[id])
		delete(f.champions, id)
	}
	return n, nil
}

// --- Entries ---

func (f *FakeRepository) ListEntries(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListEntries")
	var out []survivordomain.Entry
	for _, e := range f.entries {
		if e.PoolID == poolID {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (f *FakeRepository) ListAliveEntries(ctx context.Context, db bun.IDB) ([]survivordomain.Entry, error) {
	if f.ListAliveEntriesFn != nil {
		return f.ListAliveEntriesFn(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAliveEntries")
	var out []survivordomain.Entry
	for _, e := range f.entries {
		if !e.Eliminated && f.poolInPlay(e.PoolID) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (f *FakeRepository) CountEntries(ctx context.Context, db bun.IDB, poolID uuid.UUID) (survivordomain.Counts, error) {
	entries, err := f.ListEntries(ctx, db, poolID)
	if err != nil {
		return survivordomain.Counts{}, err
	}
	return survivordomain.CountEntries(entries), nil
}

func (f *FakeRepository) EliminateEntriesWithIncorrectPick(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]survivordomain.Entry, error) {
	if f.EliminateEntriesWithIncorrectPickFn != nil {
		return f.EliminateEntriesWithIncorrectPickFn(ctx, db, roundID, teamID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EliminateEntriesWithIncorrectPick")
	var out []survivordomain.Entry
	for _, p := range f.picks {
		if p.RoundID != roundID || p.TeamID != teamID || p.IsCorrect == nil || *p.IsCorrect {
			continue
		}
		if e, ok := f.eliminate(p.EntryID, survivordomain.CauseWrongPick, roundID); ok {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (f *FakeRepository) ListEntriesWithIncorrectPick(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListEntriesWithIncorrectPick")
	var ids []uuid.UUID
	for _, p := range f.picks {
		if p.RoundID == roundID && p.TeamID == teamID && p.IsCorrect != nil && !*p.IsCorrect && f.entries[p.EntryID].Eliminated {
			ids = append(ids, p.EntryID)
		}
	}
	return ids, nil
}

func (f *FakeRepository) EliminateEntriesWithoutPick(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]survivordomain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EliminateEntriesWithoutPick")
	picked := make(map[uuid.UUID]bool)
	for _, p := range f.picks {
		if p.RoundID == roundID {
			picked[p.EntryID] = true
		}
	}
	var out []survivordomain.Entry
	for id := range f.entries {
		if picked[id] {
			continue
		}
		if e, ok := f.eliminate(id, survivordomain.CauseMissedPick, roundID); ok {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (f *FakeRepository) EliminateEntries(ctx context.Context, db bun.IDB, eliminations []survivordomain.Elimination) ([]survivordomain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EliminateEntries")
	var out []survivordomain.Entry
	for _, el := range eliminations {
		if e, ok := f.eliminate(el.EntryID, el.Cause, el.RoundID); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *FakeRepository) RestoreEntries(ctx context.Context, db bun.IDB, entryIDs []uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RestoreEntries")
	n := 0
	for _, id := range entryIDs {
		e, ok := f.entries[id]
		if !ok || !e.Eliminated {
			continue
		}
		f.entries[id] = f.restore(e)
		n++
	}
	return n, nil
}

func (f *FakeRepository) RestoreEntriesEliminatedIn(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RestoreEntriesEliminatedIn")
	rounds := idSet(roundIDs)
	n := 0
	for id, e := range f.entries {
		if !e.Eliminated {
			continue
		}
		if !all && (e.EliminationRoundID == nil || !rounds[*e.EliminationRoundID]) {
			continue
		}
		f.entries[id] = f.restore(e)
		n++
	}
	return n, nil
}

// --- Picks ---

func (f *FakeRepository) GradePicks(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID, correct bool) (int, error) {
	if f.GradePicksFn != nil {
		return f.GradePicksFn(ctx, db, roundID, teamID, correct)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GradePicks")
	n := 0
	for id, p := range f.picks {
		if p.RoundID != roundID || p.TeamID != teamID || p.IsCorrect != nil {
			continue
		}
		c := correct
		p.IsCorrect = &c
		f.picks[id] = p
		n++
	}
	return n, nil
}

func (f *FakeRepository) ListPicksByEntries(ctx context.Context, db bun.IDB, entryIDs []uuid.UUID) ([]survivordomain.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPicksByEntries")
	want := idSet(entryIDs)
	var out []survivordomain.Pick
	for _, p := range f.picks {
		if want[p.EntryID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeRepository) ListPicksByPool(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPicksByPool")
	var out []survivordomain.Pick
	for _, p := range f.picks {
		if e, ok := f.entries[p.EntryID]; ok && e.PoolID == poolID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeRepository) DeletePicks(ctx context.Context, db bun.IDB, entryIDs, roundIDs []uuid.UUID) (int, error) {
	if f.DeletePicksFn != nil {
		return f.DeletePicksFn(ctx, db, entryIDs, roundIDs)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeletePicks")
	entries, rounds := idSet(entryIDs), idSet(roundIDs)
	n := 0
	for id, p := range f.picks {
		if entries[p.EntryID] && rounds[p.RoundID] {
			delete(f.picks, id)
			n++
		}
	}
	return n, nil
}

func (f *FakeRepository) DeletePicksForRounds(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeletePicksForRounds")
	rounds := idSet(roundIDs)
	n := 0
	for id, p := range f.picks {
		if all || rounds[p.RoundID] {
			delete(f.picks, id)
			n++
		}
	}
	return n, nil
}

// --- Seeding ---

func (f *FakeRepository) InsertPool(ctx context.Context, db bun.IDB, pool survivordomain.Pool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertPool")
	if pool.Status == "" {
		pool.Status = survivordomain.PoolOpen
	}
	if _, ok := f.pools[pool.ID]; !ok {
		f.poolOrder = append(f.poolOrder, pool.ID)
	}
	f.pools[pool.ID] = pool
	return nil
}

func (f *FakeRepository) InsertEntries(ctx context.Context, db bun.IDB, entries []survivordomain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertEntries")
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return nil
}

func (f *FakeRepository) InsertPicks(ctx context.Context, db bun.IDB, picks []survivordomain.Pick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertPicks")
	for _, p := range picks {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		f.picks[p.ID] = p
	}
	return nil
}
