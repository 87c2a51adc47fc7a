package bracketmigrations

import (
	"context"
	"fmt"

	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating teams, rounds and games tables...")

		if _, err := db.NewCreateTable().Model((*bracketdb.Team)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*bracketdb.Round)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().
			Model((*bracketdb.Game)(nil)).
			IfNotExists().
			ForeignKey(`(round_id) REFERENCES rounds (id) ON DELETE CASCADE`).
			ForeignKey(`(next_game_id) REFERENCES games (id)`).
			ForeignKey(`(team1_id) REFERENCES teams (id)`).
			ForeignKey(`(team2_id) REFERENCES teams (id)`).
			ForeignKey(`(winner_id) REFERENCES teams (id)`).
			Exec(ctx); err != nil {
			return err
		}

		stmts := []string{
			`ALTER TABLE games ADD CONSTRAINT games_status_check CHECK (status IN ('scheduled', 'in_progress', 'final'))`,
			`ALTER TABLE games ADD CONSTRAINT games_next_slot_check CHECK (next_game_slot IS NULL OR next_game_slot IN (1, 2))`,
			`ALTER TABLE games ADD CONSTRAINT games_winner_iff_final CHECK ((status = 'final') = (winner_id IS NOT NULL))`,
			`ALTER TABLE teams ADD CONSTRAINT teams_seed_check CHECK (seed BETWEEN 1 AND 16)`,
			// At most one feeder per (next game, slot).
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_games_next_slot ON games (next_game_id, next_game_slot) WHERE next_game_id IS NOT NULL`,
			`CREATE INDEX IF NOT EXISTS idx_games_round_id ON games (round_id)`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("bracket migration %q: %w", stmt, err)
			}
		}

		fmt.Println("Bracket tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping games, rounds and teams tables...")

		for _, model := range []any{(*bracketdb.Game)(nil), (*bracketdb.Round)(nil), (*bracketdb.Team)(nil)} {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Bracket tables dropped successfully!")
		return nil
	})
}
