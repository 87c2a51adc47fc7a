// Package notify carries engine notifications to whatever delivers them.
// Delivery is best-effort and never fails the caller.
package notify

import (
	"context"
	"sync"
)

type Cause string

const (
	CauseWrongPick        Cause = "wrong_pick"
	CauseMissedPick       Cause = "missed_pick"
	CauseNoAvailablePicks Cause = "no_available_picks"
	CauseChampion         Cause = "champion"
	CauseCoChampion       Cause = "co_champion"
)

// TopicNotificationV1 is where the watermill sink publishes.
const TopicNotificationV1 = "survivor.notification.v1"

// Notification is one user-facing event.
type Notification struct {
	UserID  string            `json:"user_id"`
	EntryID string            `json:"entry_id,omitempty"`
	PoolID  string            `json:"pool_id,omitempty"`
	Cause   Cause             `json:"cause"`
	Context map[string]string `json:"context,omitempty"`
}

// Sink accepts notifications. Implementations must not block for long and
// must swallow their own failures.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// NoOp drops every notification.
type NoOp struct{}

func (NoOp) Notify(context.Context, Notification) {}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of everything received so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// ByCause counts received notifications per cause.
func (r *Recorder) ByCause() map[Cause]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Cause]int)
	for _, n := range r.sent {
		out[n.Cause]++
	}
	return out
}

var (
	_ Sink = NoOp{}
	_ Sink = (*Recorder)(nil)
)
