package bracketservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// BracketService implements Service.
type BracketService struct {
	repo    bracketdb.Repository
	clock   clock.Clock
	logger  *slog.Logger
	metrics observability.EngineMetrics
	tracer  trace.Tracer
	db      *bun.DB
}

// NewBracketService creates a new BracketService.
func NewBracketService(
	repo bracketdb.Repository,
	clk clock.Clock,
	logger *slog.Logger,
	metrics observability.EngineMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *BracketService {
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	return &BracketService{
		repo:    repo,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
	}
}

var _ Service = (*BracketService)(nil)

func (s *BracketService) telemetry() operation.Telemetry {
	return operation.Telemetry{
		Service: "BracketService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}
}

func (s *BracketService) Graph(ctx context.Context, db bun.IDB) (*bracketdomain.Graph, error) {
	games, err := s.repo.ListGames(ctx, db)
	if err != nil {
		return nil, err
	}
	return bracketdomain.NewGraph(games)
}

func (s *BracketService) GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*bracketdomain.Game, error) {
	game, err := s.repo.GetGame(ctx, db, gameID)
	if errors.Is(err, bracketdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return game, err
}

func (s *BracketService) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error) {
	round, err := s.repo.GetRound(ctx, db, roundID)
	if errors.Is(err, bracketdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	return round, err
}

func (s *BracketService) GetRoundByCode(ctx context.Context, db bun.IDB, code string) (*bracketdomain.Round, error) {
	round, err := s.repo.GetRoundByCode(ctx, db, code)
	if errors.Is(err, bracketdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, code)
	}
	return round, err
}

func (s *BracketService) ListRounds(ctx context.Context, db bun.IDB) ([]bracketdomain.Round, error) {
	rounds, err := s.repo.ListRounds(ctx, db)
	if err != nil {
		return nil, err
	}
	bracketdomain.SortRounds(rounds)
	return rounds, nil
}

func (s *BracketService) ListTeams(ctx context.Context, db bun.IDB) ([]bracketdomain.Team, error) {
	return s.repo.ListTeams(ctx, db)
}

func (s *BracketService) MarkGameFinal(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID, team1Score, team2Score *int) (bool, error) {
	return s.repo.MarkGameFinal(ctx, db, gameID, winnerID, team1Score, team2Score)
}

func (s *BracketService) MarkGameInProgress(ctx context.Context, db bun.IDB, gameID uuid.UUID) (bool, error) {
	return s.repo.SetGameInProgress(ctx, db, gameID)
}

func (s *BracketService) EliminateTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error) {
	return s.repo.EliminateTeam(ctx, db, teamID)
}

func (s *BracketService) RestoreTeams(ctx context.Context, db bun.IDB, teamIDs []uuid.UUID) (int, error) {
	return s.repo.RestoreTeams(ctx, db, teamIDs)
}

func (s *BracketService) RoundComplete(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bool, error) {
	status, err := s.RoundStatus(ctx, db, roundID)
	if err != nil {
		return false, err
	}
	return status == bracketdomain.RoundComplete, nil
}

func (s *BracketService) NextRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error) {
	rounds, err := s.repo.ListRounds(ctx, db)
	if err != nil {
		return nil, err
	}
	next, ok := bracketdomain.NextRound(rounds, roundID)
	if !ok {
		return nil, nil
	}
	return &next, nil
}

func (s *BracketService) AvailableTeams(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]uuid.UUID, error) {
	games, err := s.repo.ListGamesByRound(ctx, db, roundID)
	if err != nil {
		return nil, err
	}
	var teams []uuid.UUID
	for _, g := range games {
		if g.Populated() {
			teams = append(teams, *g.Team1ID, *g.Team2ID)
		}
	}
	return teams, nil
}
