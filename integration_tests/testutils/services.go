package testutils

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	bracketfixtures "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/fixtures"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
)

// Tipoff is the first-round date every integration bracket uses.
var Tipoff = time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)

// Services is the engine stack built on the real repositories.
type Services struct {
	DB           *bun.DB
	BracketRepo  bracketdb.Repository
	SurvivorRepo survivordb.Repository
	Clock        *clock.Provider
	Sink         *notify.Recorder
	Bracket      *bracketservice.BracketService
	Survivor     *survivorservice.SurvivorService
	Engine       *engineservice.EngineService
}

// NewServices wires the services against env's database. The wall clock is
// fixed at now; the override lives in the clock_settings table.
func NewServices(t *testing.T, env *TestEnvironment, now time.Time) *Services {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("integration")
	metrics := observability.NoOpMetrics{}

	s := &Services{
		DB:           env.DB,
		BracketRepo:  bracketdb.NewRepository(env.DB),
		SurvivorRepo: survivordb.NewRepository(env.DB),
		Sink:         &notify.Recorder{},
	}
	s.Clock = clock.NewProvider(clock.NewBunStore(env.DB), true, 0, logger, clock.WithWallClock(clock.Fixed(now)))
	s.Bracket = bracketservice.NewBracketService(s.BracketRepo, s.Clock, logger, metrics, tracer, env.DB)
	s.Survivor = survivorservice.NewSurvivorService(s.SurvivorRepo, s.Bracket, s.Sink, s.Clock, logger, metrics, tracer, env.DB)
	s.Engine = engineservice.NewEngineService(s.Bracket, s.Survivor, s.Clock, logger, metrics, tracer, env.DB)
	return s
}

// SeedBracket stores a generated bracket of teams entrants.
func SeedBracket(t *testing.T, env *TestEnvironment, teams int, seed int64) bracketfixtures.Bracket {
	t.Helper()
	b := bracketfixtures.NewGenerator(seed).Bracket(teams, Tipoff)
	repo := bracketdb.NewRepository(env.DB)
	if err := repo.InsertBracket(env.Ctx, nil, b.Teams, b.Rounds, b.AllGames()); err != nil {
		t.Fatalf("failed to seed bracket: %v", err)
	}
	return b
}
