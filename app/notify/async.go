package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Async hands notifications to a background goroutine through a bounded
// buffer. When the buffer is full the notification is dropped and logged.
type Async struct {
	next   Sink
	queue  chan Notification
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(next Sink, buffer int, logger *slog.Logger) *Async {
	if buffer < 1 {
		buffer = 1
	}
	a := &Async{
		next:   next,
		queue:  make(chan Notification, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for n := range a.queue {
		a.next.Notify(context.Background(), n)
	}
}

// Notify never blocks. After Close notifications are dropped.
func (a *Async) Notify(ctx context.Context, n Notification) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.WarnContext(ctx, "Notification dropped, sink closed",
			slog.String("user_id", n.UserID),
			slog.String("cause", string(n.Cause)),
		)
		return
	}
	select {
	case a.queue <- n:
	default:
		a.logger.WarnContext(ctx, "Notification dropped, buffer full",
			slog.String("user_id", n.UserID),
			slog.String("cause", string(n.Cause)),
		)
	}
}

// Close stops accepting notifications and waits for the buffer to drain.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

var _ Sink = (*Async)(nil)
