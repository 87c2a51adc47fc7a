package survivormigrations

import (
	"context"
	"fmt"

	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// Requires the bracket migrations: picks and entries reference rounds and
// teams.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating pools, pool_champions, entries and picks tables...")

		if _, err := db.NewCreateTable().Model((*survivordb.Pool)(nil)).IfNotExists().
			ForeignKey(`(completed_round_id) REFERENCES rounds (id)`).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*survivordb.Entry)(nil)).IfNotExists().
			ForeignKey(`(pool_id) REFERENCES pools (id) ON DELETE CASCADE`).
			ForeignKey(`(elimination_round_id) REFERENCES rounds (id)`).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*survivordb.PoolChampion)(nil)).IfNotExists().
			ForeignKey(`(pool_id) REFERENCES pools (id) ON DELETE CASCADE`).
			ForeignKey(`(entry_id) REFERENCES entries (id) ON DELETE CASCADE`).
			ForeignKey(`(round_id) REFERENCES rounds (id)`).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*survivordb.Pick)(nil)).IfNotExists().
			ForeignKey(`(entry_id) REFERENCES entries (id) ON DELETE CASCADE`).
			ForeignKey(`(round_id) REFERENCES rounds (id)`).
			ForeignKey(`(team_id) REFERENCES teams (id)`).
			Exec(ctx); err != nil {
			return err
		}

		stmts := []string{
			`ALTER TABLE pools ADD CONSTRAINT pools_status_check CHECK (status IN ('open', 'active', 'complete'))`,
			`ALTER TABLE entries ADD CONSTRAINT entries_reason_check CHECK (elimination_reason IS NULL OR elimination_reason IN ('wrong_pick', 'missed_pick', 'no_available_picks'))`,
			`ALTER TABLE entries ADD CONSTRAINT entries_elimination_consistent CHECK (is_eliminated = (elimination_reason IS NOT NULL))`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_picks_entry_round ON picks (entry_id, round_id)`,
			`CREATE INDEX IF NOT EXISTS idx_picks_round_team ON picks (round_id, team_id)`,
			`CREATE INDEX IF NOT EXISTS idx_entries_pool_alive ON entries (pool_id) WHERE is_eliminated = FALSE`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("survivor migration %q: %w", stmt, err)
			}
		}

		fmt.Println("Survivor tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping picks, pool_champions, entries and pools tables...")

		for _, model := range []any{
			(*survivordb.Pick)(nil),
			(*survivordb.PoolChampion)(nil),
			(*survivordb.Entry)(nil),
			(*survivordb.Pool)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Survivor tables dropped successfully!")
		return nil
	})
}
