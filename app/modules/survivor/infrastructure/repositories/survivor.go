package survivordb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new survivor repository.
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

// activePool restricts an entries query to pools in play. Open pools have
// not started and complete pools are decided.
const activePool = "EXISTS (SELECT 1 FROM pools AS p WHERE p.id = e.pool_id AND p.status = 'active')"

// --- Pools ---

func (r *Impl) GetPool(ctx context.Context, db bun.IDB, poolID uuid.UUID) (*survivordomain.Pool, error) {
	db = r.resolveDB(db)
	pool := new(Pool)
	if err := db.NewSelect().Model(pool).Where("id = ?", poolID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("survivordb.GetPool: %w", err)
	}
	out := pool.ToDomain()
	return &out, nil
}

func (r *Impl) ListPools(ctx context.Context, db bun.IDB, statuses ...survivordomain.PoolStatus) ([]survivordomain.Pool, error) {
	db = r.resolveDB(db)
	var pools []Pool
	q := db.NewSelect().Model(&pools).Order("created_at ASC", "id ASC")
	if len(statuses) > 0 {
		q = q.Where("status IN (?)", bun.In(statuses))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("survivordb.ListPools: %w", err)
	}
	out := make([]survivordomain.Pool, len(pools))
	for i := range pools {
		out[i] = pools[i].ToDomain()
	}
	return out, nil
}

func (r *Impl) ActivatePools(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Pool)(nil)).
		Set("status = ?", survivordomain.PoolActive).
		Where("status = ?", survivordomain.PoolOpen).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.ActivatePools: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) CompletePool(ctx context.Context, db bun.IDB, poolID, roundID uuid.UUID) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Pool)(nil)).
		Set("status = ?", survivordomain.PoolComplete).
		Set("completed_round_id = ?", roundID).
		Where("id = ?", poolID).
		Where("status <> ?", survivordomain.PoolComplete).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("survivordb.CompletePool: %w", err)
	}
	return affected(res) > 0, nil
}

func (r *Impl) ReopenPools(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) ([]uuid.UUID, error) {
	if !all && len(roundIDs) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Pool)(nil)).
		Set("status = ?", survivordomain.PoolActive).
		Set("completed_round_id = NULL")
	if all {
		q = q.Where("status <> ?", survivordomain.PoolOpen)
	} else {
		q = q.Where("status = ?", survivordomain.PoolComplete).
			Where("completed_round_id IN (?)", bun.In(roundIDs))
	}

	var ids []uuid.UUID
	if _, err := q.Returning("id").Exec(ctx, &ids); err != nil {
		return nil, fmt.Errorf("survivordb.ReopenPools: %w", err)
	}
	return ids, nil
}

func (r *Impl) InsertChampions(ctx context.Context, db bun.IDB, champions []survivordomain.Champion) (int, error) {
	if len(champions) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	rows := make([]*PoolChampion, len(champions))
	for i, c := range champions {
		rows[i] = &PoolChampion{
			PoolID:    c.PoolID,
			EntryID:   c.EntryID,
			UserID:    c.UserID,
			RoundID:   c.RoundID,
			CreatedAt: c.CreatedAt,
		}
	}
	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (pool_id, entry_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.InsertChampions: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) ListChampions(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Champion, error) {
	db = r.resolveDB(db)
	var rows []PoolChampion
	err := db.NewSelect().
		Model(&rows).
		Where("pool_id = ?", poolID).
		Order("created_at ASC", "entry_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("survivordb.ListChampions: %w", err)
	}
	out := make([]survivordomain.Champion, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

func (r *Impl) DeleteChampions(ctx context.Context, db bun.IDB, poolIDs []uuid.UUID) (int, error) {
	if len(poolIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*PoolChampion)(nil)).
		Where("pool_id IN (?)", bun.In(poolIDs)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.DeleteChampions: %w", err)
	}
	return affected(res), nil
}

// --- Entries ---

func (r *Impl) ListEntries(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Entry, error) {
	db = r.resolveDB(db)
	var rows []Entry
	if err := db.NewSelect().Model(&rows).Where("pool_id = ?", poolID).Order("name ASC", "id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("survivordb.ListEntries: %w", err)
	}
	return entriesToDomain(rows), nil
}

func (r *Impl) ListAliveEntries(ctx context.Context, db bun.IDB) ([]survivordomain.Entry, error) {
	db = r.resolveDB(db)
	var rows []Entry
	err := db.NewSelect().
		Model(&rows).
		Where("e.is_eliminated = FALSE").
		Where(activePool).
		Order("e.pool_id ASC", "e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("survivordb.ListAliveEntries: %w", err)
	}
	return entriesToDomain(rows), nil
}

func (r *Impl) CountEntries(ctx context.Context, db bun.IDB, poolID uuid.UUID) (survivordomain.Counts, error) {
	db = r.resolveDB(db)
	var c survivordomain.Counts
	err := db.NewSelect().
		Model((*Entry)(nil)).
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COUNT(*) FILTER (WHERE is_eliminated = FALSE) AS alive").
		ColumnExpr("COUNT(*) FILTER (WHERE is_eliminated = TRUE) AS eliminated").
		Where("pool_id = ?", poolID).
		Scan(ctx, &c.Total, &c.Alive, &c.Eliminated)
	if err != nil {
		return c, fmt.Errorf("survivordb.CountEntries: %w", err)
	}
	return c, nil
}

func (r *Impl) EliminateEntriesWithIncorrectPick(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]survivordomain.Entry, error) {
	db = r.resolveDB(db)
	var rows []Entry
	_, err := db.NewUpdate().
		Model((*Entry)(nil)).
		Set("is_eliminated = TRUE").
		Set("elimination_reason = ?", string(survivordomain.CauseWrongPick)).
		Set("elimination_round_id = ?", roundID).
		Where("e.is_eliminated = FALSE").
		Where(activePool).
		Where("EXISTS (SELECT 1 FROM picks AS pk WHERE pk.entry_id = e.id AND pk.round_id = ? AND pk.team_id = ? AND pk.is_correct = FALSE)", roundID, teamID).
		Returning("e.*").
		Exec(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("survivordb.EliminateEntriesWithIncorrectPick: %w", err)
	}
	return entriesToDomain(rows), nil
}

func (r *Impl) ListEntriesWithIncorrectPick(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]uuid.UUID, error) {
	db = r.resolveDB(db)
	var ids []uuid.UUID
	err := db.NewSelect().
		Model((*Pick)(nil)).
		Column("pk.entry_id").
		Join("JOIN entries AS e ON e.id = pk.entry_id").
		Where("pk.round_id = ?", roundID).
		Where("pk.team_id = ?", teamID).
		Where("pk.is_correct = FALSE").
		Where("e.is_eliminated = TRUE").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("survivordb.ListEntriesWithIncorrectPick: %w", err)
	}
	return ids, nil
}

func (r *Impl) EliminateEntriesWithoutPick(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]survivordomain.Entry, error) {
	db = r.resolveDB(db)
	var rows []Entry
	_, err := db.NewUpdate().
		Model((*Entry)(nil)).
		Set("is_eliminated = TRUE").
		Set("elimination_reason = ?", string(survivordomain.CauseMissedPick)).
		Set("elimination_round_id = ?", roundID).
		Where("e.is_eliminated = FALSE").
		Where(activePool).
		Where("NOT EXISTS (SELECT 1 FROM picks AS pk WHERE pk.entry_id = e.id AND pk.round_id = ?)", roundID).
		Returning("e.*").
		Exec(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("survivordb.EliminateEntriesWithoutPick: %w", err)
	}
	return entriesToDomain(rows), nil
}

func (r *Impl) EliminateEntries(ctx context.Context, db bun.IDB, eliminations []survivordomain.Elimination) ([]survivordomain.Entry, error) {
	db = r.resolveDB(db)
	var out []survivordomain.Entry
	for _, el := range eliminations {
		var rows []Entry
		_, err := db.NewUpdate().
			Model((*Entry)(nil)).
			Set("is_eliminated = TRUE").
			Set("elimination_reason = ?", string(el.Cause)).
			Set("elimination_round_id = ?", el.RoundID).
			Where("e.id = ?", el.EntryID).
			Where("e.is_eliminated = FALSE").
			Where(activePool).
			Returning("e.*").
			Exec(ctx, &rows)
		if err != nil {
			return out, fmt.Errorf("survivordb.EliminateEntries: %w", err)
		}
		out = append(out, entriesToDomain(rows)...)
	}
	return out, nil
}

func (r *Impl) RestoreEntries(ctx context.Context, db bun.IDB, entryIDs []uuid.UUID) (int, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	res, err := restoreQuery(db).Where("id IN (?)", bun.In(entryIDs)).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.RestoreEntries: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) RestoreEntriesEliminatedIn(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (int, error) {
	if !all && len(roundIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	q := restoreQuery(db)
	if !all {
		q = q.Where("elimination_round_id IN (?)", bun.In(roundIDs))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.RestoreEntriesEliminatedIn: %w", err)
	}
	return affected(res), nil
}

func restoreQuery(db bun.IDB) *bun.UpdateQuery {
	return db.NewUpdate().
		Model((*Entry)(nil)).
		Set("is_eliminated = FALSE").
		Set("elimination_reason = NULL").
		Set("elimination_round_id = NULL").
		Where("is_eliminated = TRUE")
}

// --- Picks ---

func (r *Impl) GradePicks(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID, correct bool) (int, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Pick)(nil)).
		Set("is_correct = ?", correct).
		Where("round_id = ?", roundID).
		Where("team_id = ?", teamID).
		Where("is_correct IS NULL").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.GradePicks: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) ListPicksByEntries(ctx context.Context, db bun.IDB, entryIDs []uuid.UUID) ([]survivordomain.Pick, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var rows []Pick
	err := db.NewSelect().
		Model(&rows).
		Where("entry_id IN (?)", bun.In(entryIDs)).
		Order("entry_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("survivordb.ListPicksByEntries: %w", err)
	}
	return picksToDomain(rows), nil
}

func (r *Impl) ListPicksByPool(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Pick, error) {
	db = r.resolveDB(db)
	var rows []Pick
	err := db.NewSelect().
		Model(&rows).
		Join("JOIN entries AS e ON e.id = pk.entry_id").
		Where("e.pool_id = ?", poolID).
		Order("pk.entry_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("survivordb.ListPicksByPool: %w", err)
	}
	return picksToDomain(rows), nil
}

func (r *Impl) DeletePicks(ctx context.Context, db bun.IDB, entryIDs, roundIDs []uuid.UUID) (int, error) {
	if len(entryIDs) == 0 || len(roundIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Pick)(nil)).
		Where("entry_id IN (?)", bun.In(entryIDs)).
		Where("round_id IN (?)", bun.In(roundIDs)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.DeletePicks: %w", err)
	}
	return affected(res), nil
}

func (r *Impl) DeletePicksForRounds(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (int, error) {
	if !all && len(roundIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	q := db.NewDelete().Model((*Pick)(nil))
	if all {
		q = q.Where("TRUE")
	} else {
		q = q.Where("round_id IN (?)", bun.In(roundIDs))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("survivordb.DeletePicksForRounds: %w", err)
	}
	return affected(res), nil
}

// --- Seeding ---

func (r *Impl) InsertPool(ctx context.Context, db bun.IDB, pool survivordomain.Pool) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(PoolFromDomain(pool)).Exec(ctx); err != nil {
		return fmt.Errorf("survivordb.InsertPool: %w", err)
	}
	return nil
}

func (r *Impl) InsertEntries(ctx context.Context, db bun.IDB, entries []survivordomain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	rows := make([]*Entry, len(entries))
	for i, e := range entries {
		rows[i] = EntryFromDomain(e)
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("survivordb.InsertEntries: %w", err)
	}
	return nil
}

func (r *Impl) InsertPicks(ctx context.Context, db bun.IDB, picks []survivordomain.Pick) error {
	if len(picks) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	rows := make([]*Pick, len(picks))
	for i, p := range picks {
		rows[i] = PickFromDomain(p)
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("survivordb.InsertPicks: %w", err)
	}
	return nil
}
