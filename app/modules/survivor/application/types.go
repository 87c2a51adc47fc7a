package survivorservice

import (
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/google/uuid"
)

// GradeResult reports what one grading run changed. A replay reports zeros.
type GradeResult struct {
	PicksCorrect      int
	PicksIncorrect    int
	TeamEliminated    bool
	EntriesEliminated []uuid.UUID
	PicksDeleted      int
}

// SweepResult reports one sweep pass. Ran is false when the round was not
// complete or the pass had nothing to check.
type SweepResult struct {
	Ran          bool
	Eliminated   []uuid.UUID
	PicksDeleted int
}

// PoolResolution is the resolver's action on one pool.
type PoolResolution struct {
	PoolID   uuid.UUID
	Kind     survivordomain.ResolutionKind
	EntryIDs []uuid.UUID
}

type ResolveResult struct {
	Ran   bool
	Pools []PoolResolution
}

type RewindResult struct {
	PicksDeleted     int
	EntriesRestored  int
	PoolsReopened    int
	ChampionsDeleted int
}

// PoolStandings is a pool with its entries, their picks and its champions.
type PoolStandings struct {
	Pool      survivordomain.Pool
	Counts    survivordomain.Counts
	Standings []survivordomain.Standing
	Champions []survivordomain.Champion
}
