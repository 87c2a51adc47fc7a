package survivordomain

import (
	"time"

	"github.com/google/uuid"
)

// PoolStatus moves open -> active on tournament start and active -> complete
// once champions are declared. Rewind reopens complete pools.
type PoolStatus string

const (
	PoolOpen     PoolStatus = "open"
	PoolActive   PoolStatus = "active"
	PoolComplete PoolStatus = "complete"
)

// EliminationCause records why an entry left the pool.
type EliminationCause string

const (
	CauseWrongPick        EliminationCause = "wrong_pick"
	CauseMissedPick       EliminationCause = "missed_pick"
	CauseNoAvailablePicks EliminationCause = "no_available_picks"
)

func (c EliminationCause) Valid() bool {
	switch c {
	case CauseWrongPick, CauseMissedPick, CauseNoAvailablePicks:
		return true
	}
	return false
}

type Pool struct {
	ID               uuid.UUID
	Name             string
	Status           PoolStatus
	CompletedRoundID *uuid.UUID
}

// Entry is one participant's run in a pool. A user may own several.
// Cause and EliminationRoundID are set iff Eliminated.
type Entry struct {
	ID                 uuid.UUID
	PoolID             uuid.UUID
	UserID             uuid.UUID
	Name               string
	Eliminated         bool
	Cause              *EliminationCause
	EliminationRoundID *uuid.UUID
}

// EliminatedIn reports whether the entry was eliminated in roundID.
func (e Entry) EliminatedIn(roundID uuid.UUID) bool {
	return e.Eliminated && e.EliminationRoundID != nil && *e.EliminationRoundID == roundID
}

// Pick is an entry's team for a round. IsCorrect stays nil until graded.
type Pick struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	RoundID   uuid.UUID
	TeamID    uuid.UUID
	IsCorrect *bool
}

// Champion is one winner row of a complete pool.
type Champion struct {
	PoolID    uuid.UUID
	EntryID   uuid.UUID
	UserID    uuid.UUID
	RoundID   uuid.UUID
	CreatedAt time.Time
}

// Elimination is one entry to eliminate.
type Elimination struct {
	EntryID uuid.UUID
	Cause   EliminationCause
	RoundID uuid.UUID
}
