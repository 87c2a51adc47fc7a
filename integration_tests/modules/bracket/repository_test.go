package bracketintegrationtests

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/integration_tests/testutils"
)

func setup(t *testing.T) (*testutils.TestEnvironment, bracketdb.Repository) {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)
	env.Reset(t)
	return env, bracketdb.NewRepository(env.DB)
}

func TestInsertBracket_RoundTrip(t *testing.T) {
	env, repo := setup(t)
	b := testutils.SeedBracket(t, env, 64, 7)

	teams, err := repo.ListTeams(env.Ctx, nil)
	require.NoError(t, err)
	assert.Len(t, teams, 64)

	rounds, err := repo.ListRounds(env.Ctx, nil)
	require.NoError(t, err)
	require.Len(t, rounds, 6)
	for i, r := range rounds {
		assert.Equal(t, bracketdomain.Stages[i], r.Code, "rounds come back in play order")
	}

	games, err := repo.ListGames(env.Ctx, nil)
	require.NoError(t, err)
	assert.Len(t, games, 63)

	first := b.Games[0][0]
	got, err := repo.GetGame(env.Ctx, nil, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Edge)
	assert.Equal(t, first.Edge.Next, got.Edge.Next)
	assert.Equal(t, first.Edge.Slot, got.Edge.Slot)
	assert.True(t, got.StartTime.Equal(first.StartTime))

	final, err := repo.GetGame(env.Ctx, nil, b.Games[5][0].ID)
	require.NoError(t, err)
	assert.Nil(t, final.Edge, "the championship feeds nothing")

	byCode, err := repo.GetRoundByCode(env.Ctx, nil, bracketdomain.StageSweet16)
	require.NoError(t, err)
	assert.Equal(t, b.Rounds[2].ID, byCode.ID)
}

func TestGet_NotFound(t *testing.T) {
	env, repo := setup(t)

	_, err := repo.GetGame(env.Ctx, nil, uuid.New())
	assert.ErrorIs(t, err, bracketdb.ErrNotFound)
	_, err = repo.GetRound(env.Ctx, nil, uuid.New())
	assert.ErrorIs(t, err, bracketdb.ErrNotFound)
	_, err = repo.GetRoundByCode(env.Ctx, nil, "XYZ")
	assert.ErrorIs(t, err, bracketdb.ErrNotFound)
}

func TestMarkGameFinal_Guarded(t *testing.T) {
	env, repo := setup(t)
	b := testutils.SeedBracket(t, env, 4, 7)
	g := b.Games[0][0]
	s1, s2 := 81, 64

	changed, err := repo.MarkGameFinal(env.Ctx, nil, g.ID, *g.Team1ID, &s1, &s2)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkGameFinal(env.Ctx, nil, g.ID, *g.Team2ID, nil, nil)
	require.NoError(t, err)
	assert.False(t, changed, "a final game keeps its first winner")

	got, err := repo.GetGame(env.Ctx, nil, g.ID)
	require.NoError(t, err)
	assert.Equal(t, bracketdomain.GameFinal, got.Status)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, *g.Team1ID, *got.WinnerID)
	require.NotNil(t, got.Team1Score)
	assert.Equal(t, 81, *got.Team1Score)

	inProgress, err := repo.SetGameInProgress(env.Ctx, nil, g.ID)
	require.NoError(t, err)
	assert.False(t, inProgress, "final games never move back")

	counts, err := repo.CountGameStatuses(env.Ctx, nil, b.Rounds[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bracketdomain.StatusCounts{Scheduled: 1, Final: 1}, counts)
}

func TestSetSlotAndReset(t *testing.T) {
	env, repo := setup(t)
	b := testutils.SeedBracket(t, env, 4, 7)
	semi, final := b.Games[0][1], b.Games[1][0]

	changed, err := repo.SetSlot(env.Ctx, nil, final.ID, bracketdomain.Slot2, *semi.Team1ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.SetSlot(env.Ctx, nil, final.ID, bracketdomain.Slot2, *semi.Team1ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetGame(env.Ctx, nil, final.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Team1ID)
	require.NotNil(t, got.Team2ID)
	assert.Equal(t, *semi.Team1ID, *got.Team2ID)

	_, err = repo.MarkGameFinal(env.Ctx, nil, semi.ID, *semi.Team1ID, nil, nil)
	require.NoError(t, err)

	n, err := repo.ResetGames(env.Ctx, nil, []uuid.UUID{b.Rounds[0].ID}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	semiAfter, err := repo.GetGame(env.Ctx, nil, semi.ID)
	require.NoError(t, err)
	assert.Equal(t, bracketdomain.GameScheduled, semiAfter.Status)
	assert.Nil(t, semiAfter.WinnerID)
	assert.True(t, semiAfter.Populated(), "slots survive without clearSlots")

	_, err = repo.ResetGames(env.Ctx, nil, []uuid.UUID{b.Rounds[1].ID}, true)
	require.NoError(t, err)
	finalAfter, err := repo.GetGame(env.Ctx, nil, final.ID)
	require.NoError(t, err)
	assert.Nil(t, finalAfter.Team2ID)
}

func TestEliminateAndRestoreTeams(t *testing.T) {
	env, repo := setup(t)
	b := testutils.SeedBracket(t, env, 4, 7)
	a, c := b.Teams[0].ID, b.Teams[1].ID

	for _, id := range []uuid.UUID{a, c} {
		changed, err := repo.EliminateTeam(env.Ctx, nil, id)
		require.NoError(t, err)
		assert.True(t, changed)
	}
	changed, err := repo.EliminateTeam(env.Ctx, nil, a)
	require.NoError(t, err)
	assert.False(t, changed)

	n, err := repo.RestoreTeams(env.Ctx, nil, []uuid.UUID{a})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	team, err := repo.GetTeam(env.Ctx, nil, c)
	require.NoError(t, err)
	assert.True(t, team.Eliminated)

	n, err = repo.RestoreTeams(env.Ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "an empty list restores every eliminated team")
}

func TestTransactionRollback(t *testing.T) {
	env, repo := setup(t)
	b := testutils.SeedBracket(t, env, 4, 7)
	g := b.Games[0][0]

	tx, err := env.DB.BeginTx(env.Ctx, nil)
	require.NoError(t, err)
	changed, err := repo.MarkGameFinal(env.Ctx, tx, g.ID, *g.Team1ID, nil, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, tx.Rollback())

	got, err := repo.GetGame(env.Ctx, nil, g.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFinal())
}
