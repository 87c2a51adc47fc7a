package survivordb

import (
	"context"

	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for pool, entry and pick persistence.
// Every method accepts an optional db handle (transaction); nil uses the
// repository's own connection.
//
// The elimination and grading writes are guarded (is_correct IS NULL,
// is_eliminated = false, pool active) and return only the rows they
// actually changed, so a replay reports nothing new. Entries of open and
// complete pools are never eliminated.
//
// Error semantics:
//   - ErrNotFound: Record does not exist
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	// Pools
	GetPool(ctx context.Context, db bun.IDB, poolID uuid.UUID) (*survivordomain.Pool, error)
	// ListPools returns pools in any of statuses; none means all.
	ListPools(ctx context.Context, db bun.IDB, statuses ...survivordomain.PoolStatus) ([]survivordomain.Pool, error)
	// ActivatePools moves every open pool to active.
	ActivatePools(ctx context.Context, db bun.IDB) (int, error)
	// CompletePool marks a pool complete in roundID unless it already is.
	CompletePool(ctx context.Context, db bun.IDB, poolID, roundID uuid.UUID) (bool, error)
	// ReopenPools returns complete pools whose completed round is in
	// roundIDs to active. all reopens every pool that is not open.
	ReopenPools(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) ([]uuid.UUID, error)
	InsertChampions(ctx context.Context, db bun.IDB, champions []survivordomain.Champion) (int, error)
	ListChampions(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Champion, error)
	DeleteChampions(ctx context.Context, db bun.IDB, poolIDs []uuid.UUID) (int, error)

	// Entries
	ListEntries(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Entry, error)
	// ListAliveEntries returns alive entries of active pools.
	ListAliveEntries(ctx context.Context, db bun.IDB) ([]survivordomain.Entry, error)
	CountEntries(ctx context.Context, db bun.IDB, poolID uuid.UUID) (survivordomain.Counts, error)

	// EliminateEntriesWithIncorrectPick eliminates alive entries holding a
	// false pick on teamID in roundID, with cause wrong_pick.
	EliminateEntriesWithIncorrectPick(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]survivordomain.Entry, error)
	// ListEntriesWithIncorrectPick returns the ids of eliminated entries
	// holding a false pick on teamID in roundID, whichever call eliminated
	// them.
	ListEntriesWithIncorrectPick(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID) ([]uuid.UUID, error)
	// EliminateEntriesWithoutPick eliminates alive entries that have no pick
	// for roundID, with cause missed_pick.
	EliminateEntriesWithoutPick(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]survivordomain.Entry, error)
	// EliminateEntries applies eliminations to entries still alive.
	EliminateEntries(ctx context.Context, db bun.IDB, eliminations []survivordomain.Elimination) ([]survivordomain.Entry, error)
	// RestoreEntries clears elimination flag, cause and round on entryIDs.
	RestoreEntries(ctx context.Context, db bun.IDB, entryIDs []uuid.UUID) (int, error)
	// RestoreEntriesEliminatedIn restores entries eliminated in any of
	// roundIDs. all restores every eliminated entry.
	RestoreEntriesEliminatedIn(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (int, error)

	// Picks
	// GradePicks sets is_correct on ungraded picks of teamID in roundID.
	GradePicks(ctx context.Context, db bun.IDB, roundID, teamID uuid.UUID, correct bool) (int, error)
	ListPicksByEntries(ctx context.Context, db bun.IDB, entryIDs []uuid.UUID) ([]survivordomain.Pick, error)
	ListPicksByPool(ctx context.Context, db bun.IDB, poolID uuid.UUID) ([]survivordomain.Pick, error)
	// DeletePicks removes picks of entryIDs for roundIDs.
	DeletePicks(ctx context.Context, db bun.IDB, entryIDs, roundIDs []uuid.UUID) (int, error)
	// DeletePicksForRounds removes every pick in roundIDs. all removes every
	// pick.
	DeletePicksForRounds(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (int, error)

	// Seeding; pools, entries and picks are created outside the engine.
	InsertPool(ctx context.Context, db bun.IDB, pool survivordomain.Pool) error
	InsertEntries(ctx context.Context, db bun.IDB, entries []survivordomain.Entry) error
	InsertPicks(ctx context.Context, db bun.IDB, picks []survivordomain.Pick) error
}
