package survivorintegrationtests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bracketfixtures "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/fixtures"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/integration_tests/testutils"
)

type deps struct {
	env  *testutils.TestEnvironment
	repo survivordb.Repository
	b    bracketfixtures.Bracket
	pool survivordomain.Pool
}

func setup(t *testing.T) deps {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)
	env.Reset(t)
	d := deps{
		env:  env,
		repo: survivordb.NewRepository(env.DB),
		b:    testutils.SeedBracket(t, env, 8, 3),
		pool: survivordomain.Pool{ID: uuid.New(), Name: "Office", Status: survivordomain.PoolActive},
	}
	require.NoError(t, d.repo.InsertPool(env.Ctx, nil, d.pool))
	return d
}

func (d deps) entry(t *testing.T, name string, picks map[int]uuid.UUID) survivordomain.Entry {
	t.Helper()
	e := survivordomain.Entry{ID: uuid.New(), PoolID: d.pool.ID, UserID: uuid.New(), Name: name}
	require.NoError(t, d.repo.InsertEntries(d.env.Ctx, nil, []survivordomain.Entry{e}))
	var rows []survivordomain.Pick
	for ri, team := range picks {
		rows = append(rows, survivordomain.Pick{ID: uuid.New(), EntryID: e.ID, RoundID: d.b.Rounds[ri].ID, TeamID: team})
	}
	require.NoError(t, d.repo.InsertPicks(d.env.Ctx, nil, rows))
	return e
}

func TestGradeAndEliminateWrongPicks(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	g := d.b.Games[0][0]
	winner, loser := *g.Team1ID, *g.Team2ID
	round := d.b.Rounds[0].ID

	right := d.entry(t, "right", map[int]uuid.UUID{0: winner})
	wrong := d.entry(t, "wrong", map[int]uuid.UUID{0: loser})

	n, err := d.repo.GradePicks(ctx, nil, round, winner, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = d.repo.GradePicks(ctx, nil, round, loser, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = d.repo.GradePicks(ctx, nil, round, loser, true)
	require.NoError(t, err)
	assert.Zero(t, n, "grades are written once")

	eliminated, err := d.repo.EliminateEntriesWithIncorrectPick(ctx, nil, round, loser)
	require.NoError(t, err)
	require.Len(t, eliminated, 1)
	assert.Equal(t, wrong.ID, eliminated[0].ID)
	require.NotNil(t, eliminated[0].Cause)
	assert.Equal(t, survivordomain.CauseWrongPick, *eliminated[0].Cause)

	again, err := d.repo.EliminateEntriesWithIncorrectPick(ctx, nil, round, loser)
	require.NoError(t, err)
	assert.Empty(t, again, "a replay reports nothing new")

	ids, err := d.repo.ListEntriesWithIncorrectPick(ctx, nil, round, loser)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{wrong.ID}, ids)

	counts, err := d.repo.CountEntries(ctx, nil, d.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, survivordomain.Counts{Total: 2, Alive: 1, Eliminated: 1}, counts)

	picks, err := d.repo.ListPicksByEntries(ctx, nil, []uuid.UUID{right.ID})
	require.NoError(t, err)
	require.Len(t, picks, 1)
	require.NotNil(t, picks[0].IsCorrect)
	assert.True(t, *picks[0].IsCorrect)
}

func TestEliminateEntriesWithoutPick(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	g := d.b.Games[0][0]
	round := d.b.Rounds[0].ID

	d.entry(t, "picked", map[int]uuid.UUID{0: *g.Team1ID})
	lazy := d.entry(t, "lazy", nil)

	out, err := d.repo.EliminateEntriesWithoutPick(ctx, nil, round)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, lazy.ID, out[0].ID)
	require.NotNil(t, out[0].EliminationRoundID)
	assert.Equal(t, round, *out[0].EliminationRoundID)

	out, err = d.repo.EliminateEntriesWithoutPick(ctx, nil, round)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCompletePoolProtectsEntries(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	round := d.b.Rounds[0].ID
	e := d.entry(t, "last one", nil)

	changed, err := d.repo.CompletePool(ctx, nil, d.pool.ID, round)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = d.repo.CompletePool(ctx, nil, d.pool.ID, round)
	require.NoError(t, err)
	assert.False(t, changed)

	out, err := d.repo.EliminateEntries(ctx, nil, []survivordomain.Elimination{{
		EntryID: e.ID, Cause: survivordomain.CauseMissedPick, RoundID: round,
	}})
	require.NoError(t, err)
	assert.Empty(t, out, "entries of complete pools are never eliminated")

	alive, err := d.repo.ListAliveEntries(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, alive, "complete pools drop out of the alive set")

	reopened, err := d.repo.ReopenPools(ctx, nil, []uuid.UUID{round}, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{d.pool.ID}, reopened)
	pool, err := d.repo.GetPool(ctx, nil, d.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, survivordomain.PoolActive, pool.Status)
	assert.Nil(t, pool.CompletedRoundID)
}

func TestChampions(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	round := d.b.Rounds[2].ID
	a := d.entry(t, "a", nil)
	b := d.entry(t, "b", nil)
	at := time.Date(2026, 4, 6, 23, 0, 0, 0, time.UTC)

	champs := []survivordomain.Champion{
		{PoolID: d.pool.ID, EntryID: a.ID, UserID: a.UserID, RoundID: round, CreatedAt: at},
		{PoolID: d.pool.ID, EntryID: b.ID, UserID: b.UserID, RoundID: round, CreatedAt: at},
	}
	n, err := d.repo.InsertChampions(ctx, nil, champs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = d.repo.InsertChampions(ctx, nil, champs)
	require.NoError(t, err)
	assert.Zero(t, n, "champion rows are unique per pool and entry")

	got, err := d.repo.ListChampions(ctx, nil, d.pool.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	n, err = d.repo.DeleteChampions(ctx, nil, []uuid.UUID{d.pool.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRestoreAndDeletePicks(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	r0, r1 := d.b.Rounds[0].ID, d.b.Rounds[1].ID
	g := d.b.Games[0][0]

	e := d.entry(t, "two picks", map[int]uuid.UUID{0: *g.Team1ID, 1: *g.Team2ID})
	_, err := d.repo.EliminateEntries(ctx, nil, []survivordomain.Elimination{{
		EntryID: e.ID, Cause: survivordomain.CauseWrongPick, RoundID: r1,
	}})
	require.NoError(t, err)

	n, err := d.repo.RestoreEntriesEliminatedIn(ctx, nil, []uuid.UUID{r0}, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = d.repo.RestoreEntriesEliminatedIn(ctx, nil, []uuid.UUID{r1}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := d.repo.ListEntries(ctx, nil, d.pool.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Eliminated)
	assert.Nil(t, entries[0].Cause)
	assert.Nil(t, entries[0].EliminationRoundID)

	n, err = d.repo.DeletePicksForRounds(ctx, nil, []uuid.UUID{r1}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = d.repo.DeletePicksForRounds(ctx, nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	picks, err := d.repo.ListPicksByPool(ctx, nil, d.pool.ID)
	require.NoError(t, err)
	assert.Empty(t, picks)
}

func TestActivatePools(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	open := survivordomain.Pool{ID: uuid.New(), Name: "Late", Status: survivordomain.PoolOpen}
	require.NoError(t, d.repo.InsertPool(ctx, nil, open))

	n, err := d.repo.ActivatePools(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pools, err := d.repo.ListPools(ctx, nil, survivordomain.PoolOpen)
	require.NoError(t, err)
	assert.Empty(t, pools)

	_, err = d.repo.GetPool(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, survivordb.ErrNotFound)
}

func TestOpenPoolEntriesAreNotEliminated(t *testing.T) {
	d := setup(t)
	ctx := d.env.Ctx
	round := d.b.Rounds[0].ID
	loser := *d.b.Games[0][0].Team2ID

	late := survivordomain.Pool{ID: uuid.New(), Name: "Not Started", Status: survivordomain.PoolOpen}
	require.NoError(t, d.repo.InsertPool(ctx, nil, late))
	lazy := survivordomain.Entry{ID: uuid.New(), PoolID: late.ID, UserID: uuid.New(), Name: "lazy"}
	wrong := survivordomain.Entry{ID: uuid.New(), PoolID: late.ID, UserID: uuid.New(), Name: "wrong"}
	require.NoError(t, d.repo.InsertEntries(ctx, nil, []survivordomain.Entry{lazy, wrong}))
	require.NoError(t, d.repo.InsertPicks(ctx, nil, []survivordomain.Pick{{ID: uuid.New(), EntryID: wrong.ID, RoundID: round, TeamID: loser}}))

	n, err := d.repo.GradePicks(ctx, nil, round, loser, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "open pool picks are still graded")

	out, err := d.repo.EliminateEntriesWithIncorrectPick(ctx, nil, round, loser)
	require.NoError(t, err)
	assert.Empty(t, out)
	out, err = d.repo.EliminateEntriesWithoutPick(ctx, nil, round)
	require.NoError(t, err)
	assert.Empty(t, out)
	alive, err := d.repo.ListAliveEntries(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, alive)

	counts, err := d.repo.CountEntries(ctx, nil, late.ID)
	require.NoError(t, err)
	assert.Equal(t, survivordomain.Counts{Total: 2, Alive: 2}, counts)
}
