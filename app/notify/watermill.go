package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Publisher sends notifications as JSON messages on TopicNotificationV1.
type Publisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewPublisher(publisher message.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{publisher: publisher, logger: logger}
}

func (p *Publisher) Notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to marshal notification", slog.Any("error", err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	middleware.SetCorrelationID(watermill.NewShortUUID(), msg)
	msg.Metadata.Set("cause", string(n.Cause))

	if err := p.publisher.Publish(TopicNotificationV1, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish notification",
			slog.String("user_id", n.UserID),
			slog.String("cause", string(n.Cause)),
			slog.Any("error", err),
		)
	}
}

var _ Sink = (*Publisher)(nil)
