package bracketservice

import (
	"context"
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is the bracket graph: propagation, rewind of advancement, and
// status derived from live game rows. Methods take an optional db handle so
// callers can compose them inside one transaction; nil uses the default
// connection.
type Service interface {
	Graph(ctx context.Context, db bun.IDB) (*bracketdomain.Graph, error)
	GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*bracketdomain.Game, error)
	GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error)
	GetRoundByCode(ctx context.Context, db bun.IDB, code string) (*bracketdomain.Round, error)
	ListRounds(ctx context.Context, db bun.IDB) ([]bracketdomain.Round, error)
	ListTeams(ctx context.Context, db bun.IDB) ([]bracketdomain.Team, error)

	MarkGameFinal(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID, team1Score, team2Score *int) (bool, error)
	MarkGameInProgress(ctx context.Context, db bun.IDB, gameID uuid.UUID) (bool, error)
	EliminateTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error)

	// PropagateWinner writes winnerID into the slot the game's edge
	// addresses. It is a no-op for the championship game and when the slot
	// already holds winnerID.
	PropagateWinner(ctx context.Context, db bun.IDB, gameID, winnerID uuid.UUID) (bool, error)

	// ClearAdvancementFrom empties slots, scores and winners of every game in
	// rounds strictly after roundCode and resets them to scheduled.
	ClearAdvancementFrom(ctx context.Context, db bun.IDB, roundCode string) (int, error)

	// Repropagate refills every slot owed by a final game.
	Repropagate(ctx context.Context, db bun.IDB) (int, error)

	// ResetRounds returns the rounds' games to scheduled and reports the
	// teams that had lost them.
	ResetRounds(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID) (RoundReset, error)
	RestoreTeams(ctx context.Context, db bun.IDB, teamIDs []uuid.UUID) (int, error)

	RoundComplete(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bool, error)
	// NextRound returns nil when roundID is the last round.
	NextRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error)
	// AvailableTeams lists the teams of the round's fully populated games.
	AvailableTeams(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]uuid.UUID, error)
	// UnlockedRoundIDs lists rounds whose pick deadline has not passed.
	UnlockedRoundIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error)

	RoundStatus(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bracketdomain.RoundStatus, error)
	RoundDeadline(ctx context.Context, db bun.IDB, roundID uuid.UUID) (time.Time, bool, error)
	CanMakePicks(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bool, error)
	TournamentStatus(ctx context.Context, db bun.IDB) (bracketdomain.TournamentStatus, error)
	Snapshot(ctx context.Context, db bun.IDB) (Snapshot, error)

	LoadBracket(ctx context.Context, doc BracketDocument) (LoadSummary, error)
}
