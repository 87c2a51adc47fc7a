package clock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ClockSetting is the single-row table holding the simulated instant.
type ClockSetting struct {
	bun.BaseModel `bun:"table:clock_settings,alias:cs"`

	ID          int        `bun:"id,pk"`
	SimulatedAt *time.Time `bun:"simulated_at,nullzero"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

const clockSettingID = 1

// BunStore keeps the override in Postgres so every process sees the same
// simulated instant.
type BunStore struct {
	db bun.IDB
}

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) Get(ctx context.Context) (*time.Time, error) {
	setting := new(ClockSetting)
	err := s.db.NewSelect().
		Model(setting).
		Where("id = ?", clockSettingID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("clock.BunStore.Get: %w", err)
	}
	if setting.SimulatedAt == nil {
		return nil, nil
	}
	at := setting.SimulatedAt.UTC()
	return &at, nil
}

func (s *BunStore) Set(ctx context.Context, at *time.Time) error {
	setting := &ClockSetting{
		ID:        clockSettingID,
		UpdatedAt: time.Now().UTC(),
	}
	if at != nil {
		v := at.UTC()
		setting.SimulatedAt = &v
	}
	_, err := s.db.NewInsert().
		Model(setting).
		On("CONFLICT (id) DO UPDATE").
		Set("simulated_at = EXCLUDED.simulated_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clock.BunStore.Set: %w", err)
	}
	return nil
}

var _ OverrideStore = (*BunStore)(nil)
