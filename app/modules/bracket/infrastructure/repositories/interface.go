package bracketdb

import (
	"context"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for bracket persistence. Every method
// accepts an optional db handle (transaction); nil uses the repository's
// own connection.
//
// Mutations are guarded so that re-applying them is a no-op; the bool or
// count they return reports whether anything actually changed.
//
// Error semantics:
//   - ErrNotFound: Record does not exist
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	ListTeams(ctx context.Context, db bun.IDB) ([]bracketdomain.Team, error)
	GetTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (*bracketdomain.Team, error)

	// ListRounds returns rounds ordered by date, then sort order.
	ListRounds(ctx context.Context, db bun.IDB) ([]bracketdomain.Round, error)
	GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error)
	GetRoundByCode(ctx context.Context, db bun.IDB, code string) (*bracketdomain.Round, error)

	ListGames(ctx context.Context, db bun.IDB) ([]bracketdomain.Game, error)
	ListGamesByRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]bracketdomain.Game, error)
	GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*bracketdomain.Game, error)

	// CountGameStatuses reads a round's game statuses fresh from the store.
	CountGameStatuses(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bracketdomain.StatusCounts, error)

	// MarkGameFinal sets winner, scores and status=final on a game that is
	// not final yet.
	MarkGameFinal(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID, team1Score, team2Score *int) (bool, error)

	// SetGameInProgress moves a scheduled game to in_progress. Final games are
	// never touched.
	SetGameInProgress(ctx context.Context, db bun.IDB, gameID uuid.UUID) (bool, error)

	// SetSlot writes teamID into slot of gameID unless it already holds it.
	SetSlot(ctx context.Context, db bun.IDB, gameID uuid.UUID, slot bracketdomain.Slot, teamID uuid.UUID) (bool, error)

	// EliminateTeam flags a team eliminated if it is not already.
	EliminateTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error)

	// RestoreTeams clears the eliminated flag; an empty list restores all.
	RestoreTeams(ctx context.Context, db bun.IDB, teamIDs []uuid.UUID) (int, error)

	// ResetGames returns games of the rounds to scheduled with no winner or
	// scores. clearSlots also empties both team slots. Start times are kept.
	ResetGames(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, clearSlots bool) (int, error)

	// InsertBracket stores a freshly generated bracket.
	InsertBracket(ctx context.Context, db bun.IDB, teams []bracketdomain.Team, rounds []bracketdomain.Round, games []bracketdomain.Game) error
}
