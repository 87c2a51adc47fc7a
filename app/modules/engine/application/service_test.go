package engineservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	bracketfixtures "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/fixtures"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var tipoff = time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)

type fixture struct {
	t           *testing.T
	ctx         context.Context
	b           bracketfixtures.Bracket
	bracketRepo *bracketdb.FakeRepository
	repo        *survivordb.FakeRepository
	clock       *clock.Provider
	sink        *notify.Recorder
	engine      *EngineService
	pool        survivordomain.Pool
}

func newFixture(t *testing.T, teams int) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	metrics := &observability.NoOpMetrics{}

	f := &fixture{
		t:           t,
		ctx:         context.Background(),
		b:           bracketfixtures.NewGenerator(11).Bracket(teams, tipoff),
		bracketRepo: bracketdb.NewFakeRepository(),
		repo:        survivordb.NewFakeRepository(),
		clock:       clock.NewProvider(clock.NewMemoryStore(), true, time.Minute, logger, clock.WithWallClock(clock.Fixed(tipoff))),
		sink:        &notify.Recorder{},
	}
	f.b.Seed(f.bracketRepo)

	bracket := bracketservice.NewBracketService(f.bracketRepo, f.clock, logger, metrics, tracer, nil)
	survivor := survivorservice.NewSurvivorService(f.repo, bracket, f.sink, f.clock, logger, metrics, tracer, nil)
	f.engine = NewEngineService(bracket, survivor, f.clock, logger, metrics, tracer, nil)

	f.pool = survivordomain.Pool{ID: uuid.New(), Name: "Pool", Status: survivordomain.PoolActive}
	require.NoError(t, f.repo.InsertPool(f.ctx, nil, f.pool))
	return f
}

func (f *fixture) entry(name string, picks map[int]uuid.UUID) survivordomain.Entry {
	f.t.Helper()
	e := survivordomain.Entry{ID: uuid.New(), PoolID: f.pool.ID, UserID: uuid.New(), Name: name}
	require.NoError(f.t, f.repo.InsertEntries(f.ctx, nil, []survivordomain.Entry{e}))
	for ri, team := range picks {
		require.NoError(f.t, f.repo.InsertPicks(f.ctx, nil, []survivordomain.Pick{{
			ID: uuid.New(), EntryID: e.ID, RoundID: f.b.Rounds[ri].ID, TeamID: team,
		}}))
	}
	return e
}

func (f *fixture) game(ri, gi int) bracketdomain.Game {
	return f.bracketRepo.Game(f.b.Games[ri][gi].ID)
}

// playRound finalizes every game of round ri for team1.
func (f *fixture) playRound(ri int) []FinalizeResult {
	f.t.Helper()
	var out []FinalizeResult
	for gi := range f.b.Games[ri] {
		g := f.game(ri, gi)
		res, err := f.engine.FinalizeGame(f.ctx, g.ID, *g.Team1ID, &Scores{Team1: 70, Team2: 60})
		require.NoError(f.t, err)
		out = append(out, res)
	}
	return out
}

func TestFinalizeGame(t *testing.T) {
	f := newFixture(t, 8)
	g := f.game(0, 0)
	alpha, beta := *g.Team1ID, *g.Team2ID
	e1 := f.entry("E1", map[int]uuid.UUID{0: alpha})
	e2 := f.entry("E2", map[int]uuid.UUID{0: beta})

	res, err := f.engine.FinalizeGame(f.ctx, g.ID, alpha, &Scores{Team1: 78, Team2: 40})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, beta, res.LoserID)
	assert.Equal(t, []uuid.UUID{e2.ID}, res.Grade.EntriesEliminated)
	assert.True(t, res.Propagated)
	assert.False(t, res.RoundComplete)
	assert.False(t, res.MissedPicks.Ran)

	got := f.game(0, 0)
	assert.True(t, got.IsFinal())
	require.NotNil(t, got.Team1Score)
	assert.Equal(t, 78, *got.Team1Score)
	next := f.game(1, 0)
	require.NotNil(t, next.Team1ID)
	assert.Equal(t, alpha, *next.Team1ID)

	assert.False(t, f.repo.Entry(e1.ID).Eliminated)
	assert.True(t, f.repo.Entry(e2.ID).Eliminated)
	assert.True(t, f.bracketRepo.Team(beta).Eliminated)
}

func TestFinalizeGame_ClosesRound(t *testing.T) {
	f := newFixture(t, 4)
	lazy := f.entry("lazy", nil)
	f.entry("steady", map[int]uuid.UUID{0: *f.game(0, 0).Team1ID})
	f.entry("steady too", map[int]uuid.UUID{0: *f.game(0, 1).Team1ID})

	results := f.playRound(0)
	assert.False(t, results[0].RoundComplete)
	last := results[len(results)-1]
	assert.True(t, last.RoundComplete)
	assert.True(t, last.MissedPicks.Ran)
	assert.Equal(t, []uuid.UUID{lazy.ID}, last.MissedPicks.Eliminated)
	assert.True(t, last.NoPicksLeft.Ran)
	assert.True(t, last.Champions.Ran)
	assert.Empty(t, last.Champions.Pools)
}

func TestFinalizeGame_Replay(t *testing.T) {
	f := newFixture(t, 4)
	g := f.game(0, 0)
	f.entry("E", map[int]uuid.UUID{0: *g.Team2ID})

	_, err := f.engine.FinalizeGame(f.ctx, g.ID, *g.Team1ID, nil)
	require.NoError(t, err)
	again, err := f.engine.FinalizeGame(f.ctx, g.ID, *g.Team1ID, nil)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Zero(t, again.Grade.PicksIncorrect)
	assert.Empty(t, again.Grade.EntriesEliminated)
	assert.False(t, again.Propagated)
	assert.Len(t, f.sink.Sent(), 1)
}

func TestFinalizeGame_Rejects(t *testing.T) {
	f := newFixture(t, 4)
	g := f.game(0, 0)
	_, err := f.engine.FinalizeGame(f.ctx, g.ID, *g.Team1ID, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		gameID uuid.UUID
		winner uuid.UUID
		want   error
	}{
		{name: "different winner", gameID: g.ID, winner: *g.Team2ID, want: ErrWinnerConflict},
		{name: "winner not in game", gameID: f.b.Games[0][1].ID, winner: *g.Team1ID, want: ErrWinnerNotInGame},
		{name: "next game not populated", gameID: f.b.Games[1][0].ID, winner: *g.Team1ID, want: ErrGameNotReady},
		{name: "unknown game", gameID: uuid.New(), winner: *g.Team1ID, want: bracketservice.ErrGameNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.FinalizeGame(f.ctx, tt.gameID, tt.winner, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Equal(t, *g.Team1ID, *f.game(0, 0).WinnerID, "recorded result is unchanged")
}

func TestSetSimulatedClock_ClosesPicks(t *testing.T) {
	f := newFixture(t, 4)

	status, err := f.engine.Status(f.ctx)
	require.NoError(t, err)
	assert.False(t, status.Simulated)
	assert.Equal(t, bracketdomain.TournamentPre, status.Tournament)
	require.True(t, status.Rounds[0].CanMakePicks)

	afterDeadline := tipoff.Add(12 * time.Hour)
	require.NoError(t, f.engine.SetSimulatedClock(f.ctx, &afterDeadline))
	status, err = f.engine.Status(f.ctx)
	require.NoError(t, err)
	assert.True(t, status.Simulated)
	assert.True(t, afterDeadline.Equal(status.Now))
	assert.False(t, status.Rounds[0].CanMakePicks, "deadline passed on the simulated clock")
	assert.True(t, status.Rounds[1].CanMakePicks)
	assert.Equal(t, bracketdomain.RoundPre, status.Rounds[0].Status, "no game has started")

	require.NoError(t, f.engine.SetSimulatedClock(f.ctx, nil))
	status, err = f.engine.Status(f.ctx)
	require.NoError(t, err)
	assert.False(t, status.Simulated)
	assert.True(t, status.Rounds[0].CanMakePicks)
}

func TestStartTournament(t *testing.T) {
	f := newFixture(t, 2)
	open := survivordomain.Pool{ID: uuid.New(), Name: "Open", Status: survivordomain.PoolOpen}
	require.NoError(t, f.repo.InsertPool(f.ctx, nil, open))

	n, err := f.engine.StartTournament(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// Results recorded without the rest of the pipeline are picked up by the
// next reconcile pass.
func TestReconcile(t *testing.T) {
	f := newFixture(t, 8)
	loserPick := f.entry("loser", map[int]uuid.UUID{0: *f.game(0, 0).Team2ID})
	lazy := f.entry("lazy", nil)
	f.entry("A", map[int]uuid.UUID{0: *f.game(0, 1).Team1ID})
	f.entry("B", map[int]uuid.UUID{0: *f.game(0, 2).Team1ID})

	res, err := f.engine.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, res.RoundID)

	for _, g := range f.b.Games[0] {
		_, err := f.bracketRepo.MarkGameFinal(f.ctx, nil, g.ID, *g.Team1ID, nil, nil)
		require.NoError(t, err)
	}

	res, err = f.engine.Reconcile(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, res.RoundID)
	assert.Equal(t, f.b.Rounds[0].ID, *res.RoundID)
	assert.Equal(t, 4, res.GamesRegraded)
	assert.Equal(t, 4, res.SlotsRefilled)
	assert.True(t, f.repo.Entry(loserPick.ID).Eliminated)
	assert.True(t, f.repo.Entry(lazy.ID).Eliminated)
	for _, g := range f.b.Games[1] {
		assert.True(t, f.game(1, g.Position).Populated())
	}

	again, err := f.engine.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, again.SlotsRefilled)
	assert.Empty(t, again.MissedPicks.Eliminated)
}

// Once the next round has tipped off, neither a reconcile pass nor a
// replayed earlier result may close the finished round again.
func TestCloseRound_SkippedAfterNextRoundStarts(t *testing.T) {
	f := newFixture(t, 8)
	a := *f.game(0, 0).Team1ID
	e1 := f.entry("E1", map[int]uuid.UUID{0: a})
	e2 := f.entry("E2", map[int]uuid.UUID{0: a})
	e3 := f.entry("E3", map[int]uuid.UUID{0: a})
	f.playRound(0)

	b := *f.game(1, 0).Team2ID
	c := *f.game(1, 1).Team1ID
	r32 := f.b.Rounds[1]
	for _, pick := range []struct {
		entry uuid.UUID
		team  uuid.UUID
	}{{e1.ID, b}, {e2.ID, b}, {e3.ID, c}} {
		require.NoError(t, f.repo.InsertPicks(f.ctx, nil, []survivordomain.Pick{{
			ID: uuid.New(), EntryID: pick.entry, RoundID: r32.ID, TeamID: pick.team,
		}}))
	}

	_, err := f.engine.FinalizeGame(f.ctx, f.game(1, 0).ID, *f.game(1, 0).Team1ID, nil)
	require.NoError(t, err)
	require.True(t, f.repo.Entry(e1.ID).Eliminated)
	require.True(t, f.repo.Entry(e2.ID).Eliminated)
	require.False(t, f.repo.Entry(e3.ID).Eliminated)

	res, err := f.engine.Reconcile(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, res.RoundID)
	assert.Equal(t, f.b.Rounds[0].ID, *res.RoundID)
	assert.True(t, res.CloseSkipped)
	assert.False(t, res.Champions.Ran)

	replay, err := f.engine.FinalizeGame(f.ctx, f.game(0, 0).ID, a, nil)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.True(t, replay.RoundComplete)
	assert.False(t, replay.MissedPicks.Ran)
	assert.False(t, replay.NoPicksLeft.Ran)
	assert.False(t, replay.Champions.Ran)

	pool, err := f.repo.GetPool(f.ctx, nil, f.pool.ID)
	require.NoError(t, err)
	require.Equal(t, survivordomain.PoolActive, pool.Status, "one survivor mid-round is not a champion")
	champions, err := f.repo.ListChampions(f.ctx, nil, f.pool.ID)
	require.NoError(t, err)
	require.Empty(t, champions)

	// C loses: the round empties the pool and all three share the title.
	last, err := f.engine.FinalizeGame(f.ctx, f.game(1, 1).ID, *f.game(1, 1).Team2ID, nil)
	require.NoError(t, err)
	assert.True(t, last.RoundComplete)
	require.Len(t, last.Champions.Pools, 1)
	assert.Equal(t, survivordomain.ResolutionCoChampions, last.Champions.Pools[0].Kind)
	assert.ElementsMatch(t, []uuid.UUID{e1.ID, e2.ID, e3.ID}, last.Champions.Pools[0].EntryIDs)

	pool, err = f.repo.GetPool(f.ctx, nil, f.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, survivordomain.PoolComplete, pool.Status)
	require.NotNil(t, pool.CompletedRoundID)
	assert.Equal(t, r32.ID, *pool.CompletedRoundID)
}
