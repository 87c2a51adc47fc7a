package clock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context) (*time.Time, error) { return nil, f.err }
func (f failingStore) Set(context.Context, *time.Time) error   { return f.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvider_RealTimeWhenSimulationDisabled(t *testing.T) {
	wall := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	p := NewProvider(store, false, time.Second, testLogger(), WithWallClock(Fixed(wall)))

	assert.Equal(t, wall, p.Now(context.Background()))
	assert.Zero(t, store.Reads(), "store must not be read in real mode")

	at := wall.Add(48 * time.Hour)
	err := p.Set(context.Background(), &at)
	assert.ErrorIs(t, err, ErrSimulationDisabled)
	assert.NoError(t, p.Set(context.Background(), nil))
}

func TestProvider_SimulatedInstant(t *testing.T) {
	ctx := context.Background()
	wall := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	p := NewProvider(NewMemoryStore(), true, time.Minute, testLogger(), WithWallClock(Fixed(wall)))

	assert.Equal(t, wall, p.Now(ctx), "no override yet")

	sim := time.Date(2026, 3, 21, 18, 30, 0, 0, time.UTC)
	require.NoError(t, p.Set(ctx, &sim))
	assert.Equal(t, sim, p.Now(ctx), "Set must invalidate the cache")

	override, err := p.Override(ctx)
	require.NoError(t, err)
	require.NotNil(t, override)
	assert.Equal(t, sim, *override)

	require.NoError(t, p.Set(ctx, nil))
	assert.Equal(t, wall, p.Now(ctx))
}

func TestProvider_CachesForTTL(t *testing.T) {
	ctx := context.Background()
	wall := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	fake := &FakeClock{NowFn: func() time.Time { return wall }}
	store := NewMemoryStore()
	p := NewProvider(store, true, 2*time.Second, testLogger(), WithWallClock(fake))

	p.Now(ctx)
	p.Now(ctx)
	assert.Equal(t, 1, store.Reads())

	// Another process changes the override; this one sees it after the TTL.
	sim := wall.Add(time.Hour)
	require.NoError(t, store.Set(ctx, &sim))
	assert.Equal(t, wall, p.Now(ctx))

	wall = wall.Add(3 * time.Second)
	assert.Equal(t, sim, p.Now(ctx))
	assert.Equal(t, 2, store.Reads())

	p.Invalidate()
	p.Now(ctx)
	assert.Equal(t, 3, store.Reads())
}

func TestProvider_StoreFailureFallsBackToWall(t *testing.T) {
	wall := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	boom := errors.New("connection refused")
	p := NewProvider(failingStore{err: boom}, true, time.Second, testLogger(), WithWallClock(Fixed(wall)))

	assert.Equal(t, wall, p.Now(context.Background()))

	_, err := p.Override(context.Background())
	assert.ErrorIs(t, err, boom)

	at := wall
	assert.ErrorIs(t, p.Set(context.Background(), &at), boom)
}

func TestParseInstant(t *testing.T) {
	now := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339",
			input: "2026-03-20T16:15:00-04:00",
			want:  time.Date(2026, 3, 20, 20, 15, 0, 0, time.UTC),
		},
		{
			name:  "tomorrow",
			input: "tomorrow at 7pm",
			want:  time.Date(2026, 3, 20, 19, 0, 0, 0, time.UTC),
		},
		{name: "empty", input: "  ", wantErr: true},
		{name: "nonsense", input: "whenever", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInstant(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
