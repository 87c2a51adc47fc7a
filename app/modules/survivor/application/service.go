package survivorservice

import (
	"context"
	"log/slog"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/notify"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// SurvivorService implements Service.
type SurvivorService struct {
	repo    survivordb.Repository
	bracket Bracket
	sink    notify.Sink
	clock   clock.Clock
	logger  *slog.Logger
	metrics observability.EngineMetrics
	tracer  trace.Tracer
	db      *bun.DB
}

// NewSurvivorService creates a new SurvivorService.
func NewSurvivorService(
	repo survivordb.Repository,
	bracket Bracket,
	sink notify.Sink,
	clk clock.Clock,
	logger *slog.Logger,
	metrics observability.EngineMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *SurvivorService {
	if sink == nil {
		sink = notify.NoOp{}
	}
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	return &SurvivorService{
		repo:    repo,
		bracket: bracket,
		sink:    sink,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
	}
}

var _ Service = (*SurvivorService)(nil)

func (s *SurvivorService) telemetry() operation.Telemetry {
	return operation.Telemetry{
		Service: "SurvivorService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}
}

func (s *SurvivorService) ActivatePools(ctx context.Context) (int, error) {
	return operation.Run(ctx, s.telemetry(), "ActivatePools", "open", func(ctx context.Context) (int, error) {
		n, err := s.repo.ActivatePools(ctx, nil)
		if err != nil {
			return 0, err
		}
		s.logger.InfoContext(ctx, "Pools activated", slog.Int("pools", n))
		return n, nil
	})
}

// cascadeFuturePicks deletes the entries' picks for rounds after
// gradedRound that are still open to picking. The graded round itself is
// never touched: its picks carry the result that eliminated the entry.
func (s *SurvivorService) cascadeFuturePicks(ctx context.Context, entryIDs []uuid.UUID, gradedRound uuid.UUID) (int, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	rounds, err := s.bracket.ListRounds(ctx, nil)
	if err != nil {
		return 0, err
	}
	unlocked, err := s.bracket.UnlockedRoundIDs(ctx, nil)
	if err != nil {
		return 0, err
	}
	open := make(map[uuid.UUID]bool, len(unlocked))
	for _, id := range unlocked {
		open[id] = true
	}

	bracketdomain.SortRounds(rounds)
	var future []uuid.UUID
	after := false
	for _, r := range rounds {
		if after && open[r.ID] {
			future = append(future, r.ID)
		}
		if r.ID == gradedRound {
			after = true
		}
	}
	if len(future) == 0 {
		return 0, nil
	}
	return s.repo.DeletePicks(ctx, nil, entryIDs, future)
}

func (s *SurvivorService) notifyEliminated(ctx context.Context, entries []survivordomain.Entry, cause notify.Cause, roundID uuid.UUID) {
	for _, e := range entries {
		s.sink.Notify(ctx, notify.Notification{
			UserID:  e.UserID.String(),
			EntryID: e.ID.String(),
			PoolID:  e.PoolID.String(),
			Cause:   cause,
			Context: map[string]string{
				"entry_name": e.Name,
				"round_id":   roundID.String(),
			},
		})
	}
}

func entryIDs(entries []survivordomain.Entry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
