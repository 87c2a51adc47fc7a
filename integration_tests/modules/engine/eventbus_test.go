package engineintegrationtests

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/eventbus"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine"
	enginehandlers "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/handlers"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
)

// A result published on the bus flows through the router and the queue to
// the store.
func TestGameFinalizedOverNATS(t *testing.T) {
	h := newHarness(t, 4)
	natsURL := h.env.RequireNATS(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bus, err := eventbus.New(natsURL, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	cfg := *h.env.Config
	cfg.NATS.URL = natsURL
	mod, err := engine.NewModule(h.env.Ctx, &cfg, observability.NewNoop(logger), h.env.DB, h.svc.Engine, bus)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(h.env.Ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go mod.Run(ctx, &wg)
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, mod.Close())
		wg.Wait()
	})

	g := h.b.Games[0][1]
	s1, s2 := 80, 71
	payload, err := json.Marshal(enginehandlers.GameFinalizedPayloadV1{
		GameID: g.ID, WinnerID: *g.Team1ID, Team1Score: &s1, Team2Score: &s2,
	})
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("correlation_id", uuid.NewString())
	// The subscriber may still be binding its consumer; retry the publish
	// until the game turns final.
	deadline := time.Now().Add(30 * time.Second)
	for {
		require.NoError(t, bus.Publisher().Publish(enginehandlers.GameFinalizedTopicV1, msg))
		got, err := h.svc.BracketRepo.GetGame(h.env.Ctx, nil, g.ID)
		require.NoError(t, err)
		if got.IsFinal() {
			assert.Equal(t, *g.Team1ID, *got.WinnerID)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("game never finalized from the bus")
		}
		time.Sleep(500 * time.Millisecond)
	}
}
