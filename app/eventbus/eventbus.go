// Package eventbus connects watermill to NATS JetStream.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

const (
	// StreamName is the JetStream stream holding every survivor subject.
	StreamName = "SURVIVOR"
	// StreamSubjects is the subject filter of StreamName.
	StreamSubjects = "survivor.>"
	// QueueGroup is shared by every engine replica so a message is handled once.
	QueueGroup = "survivor-engine"
)

// Bus owns the NATS connection and the watermill publisher/subscriber built
// on it.
type Bus struct {
	conn       *nc.Conn
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
	logger     *slog.Logger
}

func natsOptions(logger *slog.Logger) []nc.Option {
	return []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("Error in subscription",
					slog.String("subject", s.Subject),
					slog.String("queue", s.Queue),
					slog.Any("error", err),
				)
				return
			}
			logger.Error("Error in connection", slog.Any("error", err))
		}),
	}
}

// New connects to natsURL, makes sure the survivor stream exists and builds
// the watermill publisher and subscriber.
func New(natsURL string, logger *slog.Logger) (*Bus, error) {
	options := natsOptions(logger)

	conn, err := nc.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := EnsureStream(conn); err != nil {
		conn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	jsConfig := wmnats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		DurablePrefix: QueueGroup,
	}

	publisher, err := wmnats.NewPublisherWithNatsConn(conn, wmnats.PublisherPublishConfig{
		Marshaler: &wmnats.NATSMarshaler{},
		JetStream: jsConfig,
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              natsURL,
		QueueGroupPrefix: QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      options,
		Unmarshaler:      &wmnats.NATSMarshaler{},
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill NATS subscriber: %w", err)
	}

	return &Bus{
		conn:       conn,
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

// EnsureStream creates the survivor stream when it does not exist yet.
func EnsureStream(conn *nc.Conn) error {
	js, err := conn.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if _, err := js.StreamInfo(StreamName); err == nil {
		return nil
	} else if !errors.Is(err, nc.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", StreamName, err)
	}
	_, err = js.AddStream(&nc.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{StreamSubjects},
		Storage:   nc.FileStorage,
		Retention: nc.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
	}
	return nil
}

func (b *Bus) Publisher() message.Publisher   { return b.publisher }
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }
func (b *Bus) Conn() *nc.Conn                 { return b.conn }

// Close shuts down the subscriber, publisher and connection.
func (b *Bus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("subscriber: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	b.conn.Close()
	return errors.Join(errs...)
}
