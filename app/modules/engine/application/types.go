package engineservice

import (
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	"github.com/google/uuid"
)

// ScopeAll rewinds the whole tournament.
const ScopeAll = "all"

// Scores is an optional final score.
type Scores struct {
	Team1 int `json:"team1_score"`
	Team2 int `json:"team2_score"`
}

// FinalizeResult reports every step FinalizeGame ran.
type FinalizeResult struct {
	GameID        uuid.UUID
	RoundID       uuid.UUID
	WinnerID      uuid.UUID
	LoserID       uuid.UUID
	Replayed      bool // the game was already final with this winner
	Grade         survivorservice.GradeResult
	Propagated    bool
	RoundComplete bool
	MissedPicks   survivorservice.SweepResult
	NoPicksLeft   survivorservice.SweepResult
	Champions     survivorservice.ResolveResult
}

// RewindSummary reports what RewindRound undid.
type RewindSummary struct {
	Scope           string `json:"scope"`
	GamesReset      int    `json:"games_reset"`
	TeamsRestored   int    `json:"teams_restored"`
	PicksDeleted    int    `json:"picks_deleted"`
	EntriesRestored int    `json:"entries_restored"`
	PoolsReopened   int    `json:"pools_reopened"`
	SlotsRefilled   int    `json:"slots_refilled"`
}

// ReconcileResult reports one reconcile pass. RoundID is nil when no round
// is complete yet.
type ReconcileResult struct {
	RoundID       *uuid.UUID
	GamesRegraded int
	SlotsRefilled int
	CloseSkipped  bool
	MissedPicks   survivorservice.SweepResult
	NoPicksLeft   survivorservice.SweepResult
	Champions     survivorservice.ResolveResult
}

// RoundReport is one round's derived status.
type RoundReport struct {
	ID           uuid.UUID                 `json:"id"`
	Code         string                    `json:"code"`
	Name         string                    `json:"name"`
	Status       bracketdomain.RoundStatus `json:"status"`
	Deadline     *time.Time                `json:"deadline,omitempty"`
	CanMakePicks bool                      `json:"can_make_picks"`
	GamesFinal   int                       `json:"games_final"`
	GamesTotal   int                       `json:"games_total"`
}

// StatusReport is the tournament as the clock currently sees it.
type StatusReport struct {
	Now        time.Time                      `json:"now"`
	Simulated  bool                           `json:"simulated"`
	Tournament bracketdomain.TournamentStatus `json:"tournament"`
	Rounds     []RoundReport                  `json:"rounds"`
}
