package survivorservice

import (
	"testing"

	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewind_RoundScope(t *testing.T) {
	h := newHarness(t, 4)
	r0, r1 := h.b.Rounds[0], h.b.Rounds[1]
	survivor := h.entry("survivor")
	h.pick(survivor.ID, r0, h.winner1(0, 0))
	lazy := h.entry("lazy")

	h.finishRound(0)
	require.Equal(t, survivordomain.PoolComplete, h.poolState(h.pool.ID).Status)
	require.True(t, h.repo.Entry(lazy.ID).Eliminated)

	res, err := h.svc.Rewind(h.ctx, nil, []uuid.UUID{r0.ID, r1.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, RewindResult{
		PicksDeleted:     1,
		EntriesRestored:  1,
		PoolsReopened:    1,
		ChampionsDeleted: 1,
	}, res)

	pool := h.poolState(h.pool.ID)
	assert.Equal(t, survivordomain.PoolActive, pool.Status)
	assert.Nil(t, pool.CompletedRoundID)
	champions, err := h.repo.ListChampions(h.ctx, nil, h.pool.ID)
	require.NoError(t, err)
	assert.Empty(t, champions)
	assert.False(t, h.repo.Entry(lazy.ID).Eliminated)
	assert.Empty(t, h.repo.AllPicks())
}

func TestRewind_LeavesEarlierRounds(t *testing.T) {
	h := newHarness(t, 8)
	r0, r1 := h.b.Rounds[0], h.b.Rounds[1]
	early := h.entry("early")
	h.pick(early.ID, r0, *h.b.Games[0][0].Team2ID)
	a := h.entry("A")
	h.pick(a.ID, r0, h.winner1(0, 0))
	b := h.entry("B")
	h.pick(b.ID, r0, h.winner1(0, 1))

	h.finishRound(0)
	h.pick(a.ID, r1, h.winner1(0, 2))
	h.finishRound(1)
	require.True(t, h.repo.Entry(b.ID).Eliminated, "B missed the second round")

	res, err := h.svc.Rewind(h.ctx, nil, []uuid.UUID{r1.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PicksDeleted)
	assert.Equal(t, 1, res.EntriesRestored)
	assert.True(t, h.repo.Entry(early.ID).Eliminated, "first-round elimination is out of scope")
	assert.False(t, h.repo.Entry(b.ID).Eliminated)
	_, ok := h.repo.Pick(a.ID, r0.ID)
	assert.True(t, ok)
}

func TestRewind_All(t *testing.T) {
	h := newHarness(t, 4)
	e := h.entry("E")
	h.pick(e.ID, h.b.Rounds[0], *h.b.Games[0][0].Team2ID)

	running := h.addPool("Still Running", survivordomain.PoolActive)
	for _, name := range []string{"x1", "x2"} {
		x := h.entryIn(running, name)
		h.pick(x.ID, h.b.Rounds[0], h.winner1(0, 0))
	}
	lazy := h.entryIn(running, "lazy")
	h.finishRound(0)
	require.Equal(t, survivordomain.PoolComplete, h.poolState(h.pool.ID).Status)
	require.Equal(t, survivordomain.PoolActive, h.poolState(running.ID).Status)

	res, err := h.svc.Rewind(h.ctx, nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.PicksDeleted)
	assert.Equal(t, 1, res.EntriesRestored)
	assert.Equal(t, 2, res.PoolsReopened, "every pool that is not open")
	assert.Equal(t, 1, res.ChampionsDeleted)
	assert.Equal(t, survivordomain.PoolActive, h.poolState(h.pool.ID).Status)
	assert.False(t, h.repo.Entry(lazy.ID).Eliminated)
}
