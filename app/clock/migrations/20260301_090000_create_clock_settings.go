package clockmigrations

import (
	"context"
	"fmt"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating clock_settings table...")
		if _, err := db.NewCreateTable().Model((*clock.ClockSetting)(nil)).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create clock_settings table: %w", err)
		}
		fmt.Println("clock_settings table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping clock_settings table...")
		if _, err := db.NewDropTable().Model((*clock.ClockSetting)(nil)).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop clock_settings table: %w", err)
		}
		return nil
	})
}
