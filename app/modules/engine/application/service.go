package engineservice

import (
	"context"
	"io"
	"log/slog"
	"time"

	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// EngineService implements Service on top of the bracket and survivor
// services.
type EngineService struct {
	bracket  bracketservice.Service
	survivor survivorservice.Service
	clock    ClockControl
	logger   *slog.Logger
	metrics  observability.EngineMetrics
	tracer   trace.Tracer
	db       *bun.DB
}

// NewEngineService creates a new EngineService. db may be nil in tests, in
// which case rewinds run without a transaction.
func NewEngineService(
	bracket bracketservice.Service,
	survivor survivorservice.Service,
	clk ClockControl,
	logger *slog.Logger,
	metrics observability.EngineMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *EngineService {
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	return &EngineService{
		bracket:  bracket,
		survivor: survivor,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
	}
}

var _ Service = (*EngineService)(nil)

func (s *EngineService) telemetry() operation.Telemetry {
	return operation.Telemetry{
		Service: "EngineService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}
}

func (s *EngineService) SetSimulatedClock(ctx context.Context, at *time.Time) error {
	id := "clear"
	if at != nil {
		id = at.UTC().Format(time.RFC3339)
	}
	_, err := operation.Run(ctx, s.telemetry(), "SetSimulatedClock", id, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.clock.Set(ctx, at)
	})
	return err
}

func (s *EngineService) StartTournament(ctx context.Context) (int, error) {
	return s.survivor.ActivatePools(ctx)
}

func (s *EngineService) ExportStandings(ctx context.Context, w io.Writer) error {
	return s.survivor.ExportStandings(ctx, w)
}

func (s *EngineService) LoadBracket(ctx context.Context, doc bracketservice.BracketDocument) (bracketservice.LoadSummary, error) {
	return s.bracket.LoadBracket(ctx, doc)
}

func (s *EngineService) Status(ctx context.Context) (StatusReport, error) {
	return operation.Run(ctx, s.telemetry(), "Status", "tournament", func(ctx context.Context) (StatusReport, error) {
		var out StatusReport
		override, err := s.clock.Override(ctx)
		if err != nil {
			return out, err
		}
		snap, err := s.bracket.Snapshot(ctx, nil)
		if err != nil {
			return out, err
		}

		out.Now = snap.Now
		out.Simulated = override != nil
		out.Tournament = snap.Status
		out.Rounds = make([]RoundReport, len(snap.Rounds))
		for i, r := range snap.Rounds {
			out.Rounds[i] = RoundReport{
				ID:           r.Round.ID,
				Code:         r.Round.Code,
				Name:         r.Round.Name,
				Status:       r.Status,
				Deadline:     r.Deadline,
				CanMakePicks: r.CanMakePicks,
				GamesFinal:   r.Counts.Final,
				GamesTotal:   r.Counts.Total(),
			}
		}
		return out, nil
	})
}
