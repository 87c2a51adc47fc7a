package clock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Provider is the engine's Clock. With simulation enabled it returns the
// stored override when one is set; the override is cached for ttl and the
// cache is dropped on every Set.
type Provider struct {
	store      OverrideStore
	wall       Clock
	ttl        time.Duration
	simulation bool
	logger     *slog.Logger

	mu       sync.Mutex
	cached   *time.Time
	loadedAt time.Time
	valid    bool
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithWallClock replaces the real-time source. Tests use it to control TTL
// expiry.
func WithWallClock(c Clock) ProviderOption {
	return func(p *Provider) { p.wall = c }
}

func NewProvider(store OverrideStore, simulation bool, ttl time.Duration, logger *slog.Logger, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:      store,
		wall:       System{},
		ttl:        ttl,
		simulation: simulation,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Now returns the simulated instant if one is set, otherwise wall time. A
// store failure is logged and answered with wall time.
func (p *Provider) Now(ctx context.Context) time.Time {
	wall := p.wall.Now(ctx)
	if !p.simulation {
		return wall
	}

	at, err := p.override(ctx, wall)
	if err != nil {
		p.logger.WarnContext(ctx, "Clock override unavailable, using wall time", slog.Any("error", err))
		return wall
	}
	if at == nil {
		return wall
	}
	return *at
}

// Override returns the current override, nil when running on real time.
func (p *Provider) Override(ctx context.Context) (*time.Time, error) {
	if !p.simulation {
		return nil, nil
	}
	return p.override(ctx, p.wall.Now(ctx))
}

func (p *Provider) override(ctx context.Context, wall time.Time) (*time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.valid && wall.Sub(p.loadedAt) < p.ttl {
		return p.cached, nil
	}

	at, err := p.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("clock.Provider.override: %w", err)
	}
	p.cached = at
	p.loadedAt = wall
	p.valid = true
	return at, nil
}

// Set stores a new override, or clears it when at is nil. Clearing is always
// allowed; setting requires simulation mode.
func (p *Provider) Set(ctx context.Context, at *time.Time) error {
	if at != nil && !p.simulation {
		return ErrSimulationDisabled
	}
	defer p.Invalidate()

	if err := p.store.Set(ctx, at); err != nil {
		return fmt.Errorf("clock.Provider.Set: %w", err)
	}
	if at == nil {
		p.logger.InfoContext(ctx, "Simulated clock cleared")
	} else {
		p.logger.InfoContext(ctx, "Simulated clock set", slog.Time("at", at.UTC()))
	}
	return nil
}

// Invalidate drops the cached override so the next read goes to the store.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.valid = false
	p.cached = nil
	p.mu.Unlock()
}

var _ Clock = (*Provider)(nil)
