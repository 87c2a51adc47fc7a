package survivorservice

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	bracketfixtures "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/fixtures"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// The fixture clock sits before the first tip-off, so every round still
// accepts picks.
var tipoff = time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)

type harness struct {
	t           *testing.T
	ctx         context.Context
	b           bracketfixtures.Bracket
	bracketRepo *bracketdb.FakeRepository
	bracket     *bracketservice.BracketService
	repo        *survivordb.FakeRepository
	sink        *notify.Recorder
	svc         *SurvivorService
	pool        survivordomain.Pool
}

func newHarness(t *testing.T, teams int) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	clk := clock.Fixed(tipoff)

	h := &harness{
		t:           t,
		ctx:         context.Background(),
		b:           bracketfixtures.NewGenerator(7).Bracket(teams, tipoff),
		bracketRepo: bracketdb.NewFakeRepository(),
		repo:        survivordb.NewFakeRepository(),
		sink:        &notify.Recorder{},
	}
	h.b.Seed(h.bracketRepo)
	h.bracket = bracketservice.NewBracketService(h.bracketRepo, clk, logger, &observability.NoOpMetrics{}, tracer, nil)
	h.svc = NewSurvivorService(h.repo, h.bracket, h.sink, clk, logger, &observability.NoOpMetrics{}, tracer, nil)
	h.pool = h.addPool("Office Pool", survivordomain.PoolActive)
	return h
}

func (h *harness) addPool(name string, status survivordomain.PoolStatus) survivordomain.Pool {
	h.t.Helper()
	p := survivordomain.Pool{ID: uuid.New(), Name: name, Status: status}
	require.NoError(h.t, h.repo.InsertPool(h.ctx, nil, p))
	return p
}

// entry adds an alive entry to the harness pool.
func (h *harness) entry(name string) survivordomain.Entry {
	h.t.Helper()
	return h.entryIn(h.pool, name)
}

func (h *harness) entryIn(pool survivordomain.Pool, name string) survivordomain.Entry {
	h.t.Helper()
	e := survivordomain.Entry{ID: uuid.New(), PoolID: pool.ID, UserID: uuid.New(), Name: name}
	require.NoError(h.t, h.repo.InsertEntries(h.ctx, nil, []survivordomain.Entry{e}))
	return e
}

func (h *harness) pick(entryID uuid.UUID, round bracketdomain.Round, teamID uuid.UUID) {
	h.t.Helper()
	require.NoError(h.t, h.repo.InsertPicks(h.ctx, nil, []survivordomain.Pick{{
		ID: uuid.New(), EntryID: entryID, RoundID: round.ID, TeamID: teamID,
	}}))
}

// finish finalizes a game for winner, grades it and propagates, the way the
// engine does for one game.
func (h *harness) finish(game bracketdomain.Game, winner uuid.UUID) GradeResult {
	h.t.Helper()
	g := h.bracketRepo.Game(game.ID)
	loser, ok := g.Opponent(winner)
	require.True(h.t, ok, "winner %s not in game %s", winner, game.ID)

	_, err := h.bracket.MarkGameFinal(h.ctx, nil, g.ID, winner, nil, nil)
	require.NoError(h.t, err)
	res, err := h.svc.ProcessCompletedGame(h.ctx, g.RoundID, winner, loser)
	require.NoError(h.t, err)
	_, err = h.bracket.PropagateWinner(h.ctx, nil, g.ID, winner)
	require.NoError(h.t, err)
	return res
}

// finishRound plays every game of round ri with team1 winning, then runs the
// sweeps and the resolver.
func (h *harness) finishRound(ri int) ResolveResult {
	h.t.Helper()
	for _, g := range h.b.Games[ri] {
		cur := h.bracketRepo.Game(g.ID)
		h.finish(cur, *cur.Team1ID)
	}
	return h.sweep(h.b.Rounds[ri])
}

func (h *harness) sweep(round bracketdomain.Round) ResolveResult {
	h.t.Helper()
	_, err := h.svc.SweepMissedPicks(h.ctx, round.ID)
	require.NoError(h.t, err)
	_, err = h.svc.SweepNoAvailablePicks(h.ctx, round.ID)
	require.NoError(h.t, err)
	res, err := h.svc.ResolveChampions(h.ctx, round.ID)
	require.NoError(h.t, err)
	return res
}

// winner1 is the team that team1-always-wins play sends out of game gi of
// round ri.
func (h *harness) winner1(ri, gi int) uuid.UUID {
	return *h.bracketRepo.Game(h.b.Games[ri][gi].ID).Team1ID
}

func (h *harness) poolState(poolID uuid.UUID) survivordomain.Pool {
	h.t.Helper()
	p, err := h.repo.GetPool(h.ctx, nil, poolID)
	require.NoError(h.t, err)
	return *p
}

func TestActivatePools(t *testing.T) {
	h := newHarness(t, 2)
	open := h.addPool("Late Pool", survivordomain.PoolOpen)

	n, err := h.svc.ActivatePools(h.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, survivordomain.PoolActive, h.poolState(open.ID).Status)

	n, err = h.svc.ActivatePools(h.ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
