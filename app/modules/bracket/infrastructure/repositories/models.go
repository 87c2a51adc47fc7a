package bracketdb

import (
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Team is a tournament team. IsEliminated only moves false to true outside
// of rewind.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Seed         int       `bun:"seed,notnull"`
	Region       string    `bun:"region,notnull"`
	IsEliminated bool      `bun:"is_eliminated,notnull,default:false"`
}

// Round has no status column; status is derived from its games.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Code      string    `bun:"code,notnull,unique"`
	Name      string    `bun:"name,notnull"`
	RoundDate time.Time `bun:"round_date,notnull,type:date"`
	SortOrder int       `bun:"sort_order,notnull,default:0"`
}

type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid"`
	RoundID      uuid.UUID  `bun:"round_id,notnull,type:uuid"`
	Team1ID      *uuid.UUID `bun:"team1_id,type:uuid"`
	Team2ID      *uuid.UUID `bun:"team2_id,type:uuid"`
	Team1Score   *int       `bun:"team1_score"`
	Team2Score   *int       `bun:"team2_score"`
	WinnerID     *uuid.UUID `bun:"winner_id,type:uuid"`
	Status       string     `bun:"status,notnull,default:'scheduled'"`
	StartTime    time.Time  `bun:"start_time,nullzero"`
	NextGameID   *uuid.UUID `bun:"next_game_id,type:uuid"`
	NextGameSlot *int       `bun:"next_game_slot"`
	Region       string     `bun:"region"`
	Position     int        `bun:"position,notnull,default:0"`
}

func (t *Team) ToDomain() bracketdomain.Team {
	return bracketdomain.Team{
		ID:         t.ID,
		Name:       t.Name,
		Seed:       t.Seed,
		Region:     t.Region,
		Eliminated: t.IsEliminated,
	}
}

func (r *Round) ToDomain() bracketdomain.Round {
	return bracketdomain.Round{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		Date:      r.RoundDate,
		SortOrder: r.SortOrder,
	}
}

func (g *Game) ToDomain() bracketdomain.Game {
	out := bracketdomain.Game{
		ID:         g.ID,
		RoundID:    g.RoundID,
		Team1ID:    g.Team1ID,
		Team2ID:    g.Team2ID,
		Team1Score: g.Team1Score,
		Team2Score: g.Team2Score,
		WinnerID:   g.WinnerID,
		Status:     bracketdomain.GameStatus(g.Status),
		StartTime:  g.StartTime,
		Region:     g.Region,
		Position:   g.Position,
	}
	if g.NextGameID != nil && g.NextGameSlot != nil {
		out.Edge = &bracketdomain.Edge{Next: *g.NextGameID, Slot: bracketdomain.Slot(*g.NextGameSlot)}
	}
	return out
}

func TeamFromDomain(t bracketdomain.Team) *Team {
	return &Team{ID: t.ID, Name: t.Name, Seed: t.Seed, Region: t.Region, IsEliminated: t.Eliminated}
}

func RoundFromDomain(r bracketdomain.Round) *Round {
	return &Round{ID: r.ID, Code: r.Code, Name: r.Name, RoundDate: r.Date, SortOrder: r.SortOrder}
}

func GameFromDomain(g bracketdomain.Game) *Game {
	out := &Game{
		ID:         g.ID,
		RoundID:    g.RoundID,
		Team1ID:    g.Team1ID,
		Team2ID:    g.Team2ID,
		Team1Score: g.Team1Score,
		Team2Score: g.Team2Score,
		WinnerID:   g.WinnerID,
		Status:     string(g.Status),
		StartTime:  g.StartTime,
		Region:     g.Region,
		Position:   g.Position,
	}
	if out.Status == "" {
		out.Status = string(bracketdomain.GameScheduled)
	}
	if g.Edge != nil {
		next, slot := g.Edge.Next, int(g.Edge.Slot)
		out.NextGameID = &next
		out.NextGameSlot = &slot
	}
	return out
}
