package bracketdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new bracket repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func affected(res sql.Result) int {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

func (r *Impl) ListTeams(ctx context.Context, db bun.IDB) ([]bracketdomain.Team, error) {
	db = r.resolveDB(db)
	var teams []Team
	if err := db.NewSelect().Model(&teams).Order("region ASC", "seed ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("bracketdb.ListTeams: %w", err)
	}
	out := make([]bracketdomain.Team, len(teams))
	for i := range teams {
		out[i] = teams[i].ToDomain()
	}
	return out, nil
}

func (r *Impl) GetTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (*bracketdomain.Team, error) {
	db = r.resolveDB(db)
	team := new(Team)
	err := db.NewSelect().Model(team).Where("id = ?", teamID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bracketdb.GetTeam: %w", err)
	}
	t := team.ToDomain()
	return &t, nil
}

func (r *Impl) ListRounds(ctx context.Context, db bun.IDB) ([]bracketdomain.Round, error) {
	db = r.resolveDB(db)
	var rounds []Round
	if err := db.NewSelect().Model(&rounds).Order("round_date ASC", "sort_order ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("bracketdb.ListRounds: %w", err)
	}
	out := make([]bracketdomain.Round, len(rounds))
	for i := range rounds {
		out[i] = rounds[i].ToDomain()
	}
	return out, nil
}

func (r *Impl) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error) {
	return r.getRound(ctx, db, "id = ?", roundID)
}

func (r *Impl) GetRoundByCode(ctx context.Context, db bun.IDB, code string) (*bracketdomain.Round, error) {
	return r.getRound(ctx, db, "code = ?", code)
}

func (r *Impl) getRound(ctx context.Context, db bun.IDB, where string, arg any) (*bracketdomain.Round, error) {
	db = r.resolveDB(db)
	round := new(Round)
	err := db.NewSelect().Model(round).Where(where, arg).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bracketdb.GetRound: %w", err)
	}
	out := round.ToDomain()
	return &out, nil
}

func (r *Impl) ListGames(ctx context.Context, db bun.IDB) ([]bracketdomain.Game, error) {
	db = r.resolveDB(db)
	var games []Game
	if err := db.NewSelect().Model(&games).Order("position ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("bracketdb.ListGames: %w", err)
	}
	return gamesToDomain(games), nil
}

func (r *Impl) ListGamesByRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]bracketdomain.Game, error) {
	db = r.resolveDB(db)
	var games []Game
	err := db.NewSelect().
		Model(&games).
		Where("round_id = ?", roundID).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bracketdb.ListGamesByRound: %w", err)
	}
	return gamesToDomain(games), nil
}

func gamesToDomain(games []Game) []bracketdomain.Game {
	out := make([]bracketdomain.Game, len(games))
	for i := range games {
		out[i] = games[i].ToDomain()
	}
	return out
}

func (r *Impl) GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*bracketdomain.Game, error) {
	db = r.resolveDB(db)
	game := new(Game)
	err := db.NewSelect().Model(game).Where("id = ?", gameID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bracketdb.GetGame: %w", err)
	}
	out := game.ToDomain()
	return &out, nil
}

func (r *Impl) CountGameStatuses(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bracketdomain.StatusCounts, error) {
	db = r.resolveDB(db)
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	err := db.NewSelect().
		Model((*Game)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS count").
		Where("round_id = ?", roundID).
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return bracketdomain.StatusCounts{}, fmt.Errorf("bracketdb.CountGameStatuses: %w", err)
	}

	var c bracketdomain.StatusCounts
	for _, row := range rows {
		switch bracketdomain.GameStatus(row.Status) {
		case bracketdomain.GameFinal:
			c.Final += row.Count
		case bracketdomain.GameInProgress:
			c.InProgress += row.Count
		default:
			c.Scheduled += row.Count
		}
	}
	return c, nil
}

func (r *Impl) MarkGameFinal(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID, team1Score, team2Score *int) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Game)(nil)).
		Set("status = ?", bracketdomain.GameFinal).
		Set("winner_id = ?", winnerID).
		Set("team1_score = ?", team1Score).
		Set("team2_score = ?", team2Score).
		Where("id = ?", gameID).
		Where("status <> ?", bracketdomain.GameFinal).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("bracketdb.MarkGameFinal: %w", err)
	}
	return affected(res) > 0, nil
}

func (r *Impl) SetGameInProgress(ctx context.Context, db bun.IDB, gameID uuid.UUID) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Game)(nil)).
		Set("status = ?", bracketdomain.GameInProgress).
		Where("id = ?", gameID).
		Where("status = ?", bracketdomain.GameScheduled).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("bracketdb.SetGameInProgress: %w", err)
	}
	return affected(res) > 0, nil
}

func slotColumn(slot bracketdomain.Slot) (string, error) {
	switch slot {
	case bracketdomain.Slot1:
		return "team1_id", nil
	case bracketdomain.Slot2:
		return "team2_id", nil
	}
	return "", fmt.Errorf("invalid slot %d", slot)
}

func (r *Impl) SetSlot(ctx context.Context, db bun.IDB, gameID uuid.UUID, slot bracketdomain.Slot, teamID uuid.UUID) (bool, error) {
	db = r.resolveDB(db)
	col, err := slotColumn(slot)
	if err != nil {
		return false, fmt.Errorf("bracketdb.SetSlot: %w", err)
	}
	res, err := db.NewUpdate().
		Model((*Game)(nil)).
		Set("? = ?", bun.Ident(col), teamID).
		Where("id = ?", gameID).
		Where("? IS DISTINCT FROM ?", bun.Ident(col), teamID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("bracketdb.SetSlot: %w", err)
	}
	return affected(res) > 0, nil
}

func (r *Impl) EliminateTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Team)(nil)).
		Set("is_eliminated = TRUE").
		Where("id = ?", teamID).
		Where("is_eliminated = FALSE").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("bracketdb.EliminateTeam: %w", err)
	}
	return affected(res) > 0, nil
}

func (r *Impl) RestoreTeams(ctx context.Context, db bun.IDB, teamIDs []uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Team)(nil)).
		Set("is_eliminated = FALSE").
		Where("is_eliminated = TRUE")
	if len(teamIDs) > 0 {
		q = q.Where("id IN (?)", bun.In(teamIDs))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bracketdb.RestoreTeams: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) ResetGames(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, clearSlots bool) (int, error) {
	if len(roundIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Game)(nil)).
		Set("status = ?", bracketdomain.GameScheduled).
		Set("winner_id = NULL").
		Set("team1_score = NULL").
		Set("team2_score = NULL").
		Where("round_id IN (?)", bun.In(roundIDs))
	if clearSlots {
		q = q.Set("team1_id = NULL").Set("team2_id = NULL")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bracketdb.ResetGames: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) InsertBracket(ctx context.Context, db bun.IDB, teams []bracketdomain.Team, rounds []bracketdomain.Round, games []bracketdomain.Game) error {
	db = r.resolveDB(db)

	if len(teams) > 0 {
		models := make([]*Team, len(teams))
		for i, t := range teams {
			models[i] = TeamFromDomain(t)
		}
		if _, err := db.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bracketdb.InsertBracket teams: %w", err)
		}
	}
	if len(rounds) > 0 {
		models := make([]*Round, len(rounds))
		for i, rd := range rounds {
			models[i] = RoundFromDomain(rd)
		}
		if _, err := db.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bracketdb.InsertBracket rounds: %w", err)
		}
	}
	if len(games) > 0 {
		// Edges reference other games; insert without edges first, then
		// attach them once every row exists.
		models := make([]*Game, len(games))
		for i, g := range games {
			m := GameFromDomain(g)
			m.NextGameID, m.NextGameSlot = nil, nil
			models[i] = m
		}
		if _, err := db.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bracketdb.InsertBracket games: %w", err)
		}
		for _, g := range games {
			if g.Edge == nil {
				continue
			}
			_, err := db.NewUpdate().
				Model((*Game)(nil)).
				Set("next_game_id = ?", g.Edge.Next).
				Set("next_game_slot = ?", int(g.Edge.Slot)).
				Where("id = ?", g.ID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("bracketdb.InsertBracket edges: %w", err)
			}
		}
	}
	return nil
}
