package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     int
}

func (b *blockingSink) Notify(context.Context, Notification) {
	<-b.release
	b.mu.Lock()
	b.got++
	b.mu.Unlock()
}

func TestAsync_DeliversInOrder(t *testing.T) {
	rec := &Recorder{}
	a := NewAsync(rec, 8, discardLogger())

	a.Notify(context.Background(), Notification{UserID: "u1", Cause: CauseWrongPick})
	a.Notify(context.Background(), Notification{UserID: "u2", Cause: CauseChampion})
	a.Close()

	sent := rec.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "u1", sent[0].UserID)
	assert.Equal(t, CauseChampion, sent[1].Cause)
}

func TestAsync_DropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	a := NewAsync(sink, 1, discardLogger())

	// The consumer takes at most one, the buffer holds one more; the rest
	// must return immediately without blocking.
	for i := 0; i < 10; i++ {
		a.Notify(context.Background(), Notification{UserID: "u", Cause: CauseMissedPick})
	}
	close(sink.release)
	a.Close()

	assert.LessOrEqual(t, sink.got, 2)
	assert.GreaterOrEqual(t, sink.got, 1)
}

func TestAsync_DropsAfterClose(t *testing.T) {
	rec := &Recorder{}
	a := NewAsync(rec, 4, discardLogger())
	a.Notify(context.Background(), Notification{UserID: "before", Cause: CauseWrongPick})
	a.Close()

	assert.NotPanics(t, func() {
		a.Notify(context.Background(), Notification{UserID: "after", Cause: CauseWrongPick})
	})
	a.Close()

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "before", sent[0].UserID)
}

func TestPublisher_PublishesJSON(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), TopicNotificationV1)
	require.NoError(t, err)

	p := NewPublisher(pubSub, discardLogger())
	p.Notify(context.Background(), Notification{
		UserID:  "u9",
		PoolID:  "p1",
		Cause:   CauseCoChampion,
		Context: map[string]string{"round": "NCG"},
	})

	msg := <-messages
	msg.Ack()

	var got Notification
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, "u9", got.UserID)
	assert.Equal(t, CauseCoChampion, got.Cause)
	assert.Equal(t, "NCG", got.Context["round"])
	assert.Equal(t, string(CauseCoChampion), msg.Metadata.Get("cause"))
}
