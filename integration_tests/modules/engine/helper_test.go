package engineintegrationtests

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	bracketfixtures "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/fixtures"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/integration_tests/testutils"
)

type harness struct {
	env  *testutils.TestEnvironment
	svc  *testutils.Services
	b    bracketfixtures.Bracket
	pool survivordomain.Pool
}

func newHarness(t *testing.T, teams int) *harness {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)
	env.Reset(t)
	h := &harness{
		env:  env,
		svc:  testutils.NewServices(t, env, testutils.Tipoff),
		b:    testutils.SeedBracket(t, env, teams, 21),
		pool: survivordomain.Pool{ID: uuid.New(), Name: "Integration", Status: survivordomain.PoolActive},
	}
	require.NoError(t, h.svc.SurvivorRepo.InsertPool(env.Ctx, nil, h.pool))
	return h
}

func (h *harness) entry(t *testing.T, name string, picks map[int]uuid.UUID) survivordomain.Entry {
	t.Helper()
	e := survivordomain.Entry{ID: uuid.New(), PoolID: h.pool.ID, UserID: uuid.New(), Name: name}
	require.NoError(t, h.svc.SurvivorRepo.InsertEntries(h.env.Ctx, nil, []survivordomain.Entry{e}))
	var rows []survivordomain.Pick
	for ri, team := range picks {
		rows = append(rows, survivordomain.Pick{ID: uuid.New(), EntryID: e.ID, RoundID: h.b.Rounds[ri].ID, TeamID: team})
	}
	require.NoError(t, h.svc.SurvivorRepo.InsertPicks(h.env.Ctx, nil, rows))
	return e
}

func (h *harness) entryState(t *testing.T, id uuid.UUID) survivordomain.Entry {
	t.Helper()
	entries, err := h.svc.SurvivorRepo.ListEntries(h.env.Ctx, nil, h.pool.ID)
	require.NoError(t, err)
	for _, e := range entries {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entry %s not found", id)
	return survivordomain.Entry{}
}
