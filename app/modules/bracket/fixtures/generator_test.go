package bracketfixtures

import (
	"testing"
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournament_IsValidForest(t *testing.T) {
	b := NewGenerator(42).Tournament(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC))

	require.Len(t, b.Teams, 64)
	require.Len(t, b.Rounds, 6)
	wantGames := []int{32, 16, 8, 4, 2, 1}
	for i, n := range wantGames {
		assert.Len(t, b.Games[i], n, "round %s", b.Rounds[i].Code)
	}

	g, err := bracketdomain.NewGraph(b.AllGames())
	require.NoError(t, err)
	assert.Equal(t, 63, g.Len())
	assert.Equal(t, b.Games[5][0].ID, g.Root().ID)
	assert.Len(t, g.Leaves(), 32)
	for _, leaf := range g.Leaves() {
		assert.True(t, leaf.Populated())
		assert.Equal(t, b.Rounds[0].ID, leaf.RoundID)
	}
}

func TestBracket_SeedsAndRegions(t *testing.T) {
	b := NewGenerator(7).Tournament(time.Now())

	seeds := map[string]map[int]bool{}
	for _, team := range b.Teams {
		if seeds[team.Region] == nil {
			seeds[team.Region] = map[int]bool{}
		}
		assert.False(t, seeds[team.Region][team.Seed], "seed %d repeated in %s", team.Seed, team.Region)
		seeds[team.Region][team.Seed] = true
	}
	assert.Len(t, seeds, 4)
	for region, s := range seeds {
		assert.Len(t, s, 16, region)
	}
	assert.Equal(t, "National", b.Games[4][0].Region)
}

func TestBracket_SmallSizes(t *testing.T) {
	for _, n := range []int{2, 4, 8} {
		b := NewGenerator(1).Bracket(n, time.Now())
		assert.Len(t, b.Teams, n)
		assert.Equal(t, bracketdomain.StageChampionship, b.Rounds[len(b.Rounds)-1].Code)
		_, err := bracketdomain.NewGraph(b.AllGames())
		assert.NoError(t, err, "size %d", n)
	}
	assert.Panics(t, func() { NewGenerator(1).Bracket(6, time.Now()) })
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 16, 8, 9, 4, 13, 5, 12, 2, 15, 7, 10, 3, 14, 6, 11}, seedOrder(16))
}
