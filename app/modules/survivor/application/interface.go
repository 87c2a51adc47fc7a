package survivorservice

import (
	"context"
	"io"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Bracket is what the survivor engine reads from, and writes to, the bracket.
type Bracket interface {
	EliminateTeam(ctx context.Context, db bun.IDB, teamID uuid.UUID) (bool, error)
	RoundComplete(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bool, error)
	RoundStatus(ctx context.Context, db bun.IDB, roundID uuid.UUID) (bracketdomain.RoundStatus, error)
	NextRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*bracketdomain.Round, error)
	AvailableTeams(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]uuid.UUID, error)
	UnlockedRoundIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error)
	ListRounds(ctx context.Context, db bun.IDB) ([]bracketdomain.Round, error)
	ListTeams(ctx context.Context, db bun.IDB) ([]bracketdomain.Team, error)
}

// Service grades picks, sweeps completed rounds and resolves champions.
// Grading and the sweeps are sequences of independently guarded writes:
// re-invoking any of them with the same arguments converges to the same
// state. The sweeps and the resolver do nothing until every game of the
// round is final, and nothing once a game of the next round has started.
type Service interface {
	ProcessCompletedGame(ctx context.Context, roundID, winnerID, loserID uuid.UUID) (GradeResult, error)
	SweepMissedPicks(ctx context.Context, roundID uuid.UUID) (SweepResult, error)
	SweepNoAvailablePicks(ctx context.Context, roundID uuid.UUID) (SweepResult, error)
	ResolveChampions(ctx context.Context, roundID uuid.UUID) (ResolveResult, error)

	// ActivatePools moves open pools to active when the tournament starts.
	ActivatePools(ctx context.Context) (int, error)

	// Rewind undoes grading, sweeps and resolution for roundIDs, or for
	// everything when all is set.
	Rewind(ctx context.Context, db bun.IDB, roundIDs []uuid.UUID, all bool) (RewindResult, error)

	PoolStandings(ctx context.Context, poolID uuid.UUID) (PoolStandings, error)
	ExportStandings(ctx context.Context, w io.Writer) error
}
