package survivordomain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eliminated(round uuid.UUID, cause EliminationCause) Entry {
	return Entry{ID: uuid.New(), Eliminated: true, Cause: &cause, EliminationRoundID: &round}
}

func TestResolve(t *testing.T) {
	round := uuid.New()
	earlier := uuid.New()
	alive := Entry{ID: uuid.New()}

	wrong := eliminated(round, CauseWrongPick)
	noPicks := eliminated(round, CauseNoAvailablePicks)
	missed := eliminated(round, CauseMissedPick)
	old := eliminated(earlier, CauseWrongPick)

	tests := []struct {
		name       string
		alive      []Entry
		eliminated []Entry
		wantKind   ResolutionKind
		wantIDs    []uuid.UUID
	}{
		{
			name:     "sole survivor",
			alive:    []Entry{alive},
			wantKind: ResolutionChampion,
			wantIDs:  []uuid.UUID{alive.ID},
		},
		{
			name:       "several alive",
			alive:      []Entry{alive, {ID: uuid.New()}},
			eliminated: []Entry{wrong},
			wantKind:   ResolutionNone,
		},
		{
			name:       "tier one beats missed picks",
			eliminated: []Entry{wrong, missed, noPicks},
			wantKind:   ResolutionCoChampions,
			wantIDs:    []uuid.UUID{wrong.ID, noPicks.ID},
		},
		{
			name:       "only missed picks",
			eliminated: []Entry{missed},
			wantKind:   ResolutionCoChampions,
			wantIDs:    []uuid.UUID{missed.ID},
		},
		{
			name:       "earlier rounds are never revived",
			eliminated: []Entry{old},
			wantKind:   ResolutionNone,
		},
		{
			name:     "empty pool",
			wantKind: ResolutionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(round, tt.alive, tt.eliminated)
			assert.Equal(t, tt.wantKind, got.Kind)
			var ids []uuid.UUID
			for _, e := range got.Entries {
				ids = append(ids, e.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
				return
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestTier(t *testing.T) {
	assert.Equal(t, 1, Tier(CauseWrongPick))
	assert.Equal(t, 1, Tier(CauseNoAvailablePicks))
	assert.Equal(t, 2, Tier(CauseMissedPick))
	assert.Equal(t, 0, Tier("other"))
}

func TestHasAvailablePick(t *testing.T) {
	r1, r2 := uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()

	picks := []Pick{{RoundID: r1, TeamID: a}}
	assert.True(t, HasAvailablePick([]uuid.UUID{a, b}, picks, r2))
	assert.False(t, HasAvailablePick([]uuid.UUID{a}, picks, r2))
	assert.False(t, HasAvailablePick(nil, picks, r2))

	// A pending pick for the next round itself does not use the team up.
	pending := []Pick{{RoundID: r1, TeamID: a}, {RoundID: r2, TeamID: b}}
	assert.True(t, HasAvailablePick([]uuid.UUID{a, b}, pending, r2))
}

func TestCheckOneUsePerTeam(t *testing.T) {
	entry, team := uuid.New(), uuid.New()
	require.NoError(t, CheckOneUsePerTeam([]Pick{
		{EntryID: entry, RoundID: uuid.New(), TeamID: team},
		{EntryID: uuid.New(), RoundID: uuid.New(), TeamID: team},
	}))

	err := CheckOneUsePerTeam([]Pick{
		{EntryID: entry, RoundID: uuid.New(), TeamID: team},
		{EntryID: entry, RoundID: uuid.New(), TeamID: team},
	})
	assert.ErrorIs(t, err, ErrDuplicateTeamPick)
}

func TestCountEntries(t *testing.T) {
	c := CountEntries([]Entry{{}, {Eliminated: true}, {}})
	assert.Equal(t, Counts{Total: 3, Alive: 2, Eliminated: 1}, c)
}
