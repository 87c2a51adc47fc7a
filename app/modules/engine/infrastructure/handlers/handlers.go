// Package enginehandlers turns bus events into engine work.
package enginehandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	enginequeue "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/queue"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidPayload marks messages that can never be processed.
var ErrInvalidPayload = errors.New("invalid payload")

// Enqueuer hands a result to the job queue.
type Enqueuer interface {
	EnqueueFinalize(ctx context.Context, job enginequeue.FinalizeGameJob) (bool, error)
}

// Handlers is the set of engine message handlers.
type Handlers interface {
	HandleGameFinalized(msg *message.Message) ([]*message.Message, error)
}

// EngineHandlers queues results from the bus. The queue deduplicates by
// args, so a redelivered message is harmless.
type EngineHandlers struct {
	queue  Enqueuer
	logger *slog.Logger
	tracer trace.Tracer
}

func NewEngineHandlers(queue Enqueuer, logger *slog.Logger, tracer trace.Tracer) *EngineHandlers {
	return &EngineHandlers{queue: queue, logger: logger, tracer: tracer}
}

var _ Handlers = (*EngineHandlers)(nil)

// HandleGameFinalized decodes a result and queues it. Malformed messages
// are acked and dropped; queue failures nack for redelivery.
func (h *EngineHandlers) HandleGameFinalized(msg *message.Message) ([]*message.Message, error) {
	ctx := msg.Context()
	if cid := middleware.MessageCorrelationID(msg); cid != "" {
		ctx = operation.WithCorrelationID(ctx, cid)
	}
	ctx, span := h.tracer.Start(ctx, "EngineHandlers.HandleGameFinalized")
	defer span.End()

	payload, err := decodeGameFinalized(msg.Payload)
	if err != nil {
		h.logger.WarnContext(ctx, "Dropping game result",
			slog.String("message_id", msg.UUID),
			slog.Any("error", err),
		)
		span.RecordError(err)
		return nil, nil
	}
	span.SetAttributes(attribute.String("game_id", payload.GameID.String()))

	queued, err := h.queue.EnqueueFinalize(ctx, enginequeue.FinalizeGameJob{
		GameID:     payload.GameID,
		WinnerID:   payload.WinnerID,
		Team1Score: payload.Team1Score,
		Team2Score: payload.Team2Score,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("queue game result %s: %w", payload.GameID, err)
	}

	h.logger.InfoContext(ctx, "Game result received",
		slog.String("message_id", msg.UUID),
		slog.String("game_id", payload.GameID.String()),
		slog.String("winner_id", payload.WinnerID.String()),
		slog.Bool("queued", queued),
	)
	return nil, nil
}

func decodeGameFinalized(data []byte) (GameFinalizedPayloadV1, error) {
	var p GameFinalizedPayloadV1
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.GameID == uuid.Nil || p.WinnerID == uuid.Nil {
		return p, fmt.Errorf("%w: game_id and winner_id are required", ErrInvalidPayload)
	}
	if (p.Team1Score == nil) != (p.Team2Score == nil) {
		return p, fmt.Errorf("%w: scores come in pairs", ErrInvalidPayload)
	}
	return p, nil
}
