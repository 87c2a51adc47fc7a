package bracketservice

import (
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
)

// RoundReset reports what ResetRounds changed.
type RoundReset struct {
	GamesReset  int
	LosingTeams []uuid.UUID
}

// RoundSnapshot is one round's derived state at a given instant.
type RoundSnapshot struct {
	Round        bracketdomain.Round
	Status       bracketdomain.RoundStatus
	Counts       bracketdomain.StatusCounts
	Deadline     *time.Time
	CanMakePicks bool
}

// Snapshot is the whole tournament's derived state.
type Snapshot struct {
	Now    time.Time
	Status bracketdomain.TournamentStatus
	Rounds []RoundSnapshot
}

// LoadSummary counts what LoadBracket inserted.
type LoadSummary struct {
	Teams  int
	Rounds int
	Games  int
}
