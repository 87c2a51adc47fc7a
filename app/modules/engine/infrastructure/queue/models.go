package enginequeue

import "github.com/google/uuid"

// FinalizeGameJob carries one game result through the queue. Identical
// results deduplicate by args.
type FinalizeGameJob struct {
	GameID     uuid.UUID `json:"game_id"`
	WinnerID   uuid.UUID `json:"winner_id"`
	Team1Score *int      `json:"team1_score,omitempty"`
	Team2Score *int      `json:"team2_score,omitempty"`
}

// Kind returns the job type identifier for River
func (FinalizeGameJob) Kind() string { return "finalize_game" }

// ReconcileJob re-runs the idempotent pipeline for the latest complete
// round.
type ReconcileJob struct{}

// Kind returns the job type identifier for River
func (ReconcileJob) Kind() string { return "reconcile" }

// JobInfo represents information about a queued job (for the status command)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	GameID      string `json:"game_id,omitempty"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
