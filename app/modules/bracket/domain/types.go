package bracketdomain

import (
	"time"

	"github.com/google/uuid"
)

// Stage codes of the 64-team tournament, in play order.
const (
	StageRoundOf64    = "R64"
	StageRoundOf32    = "R32"
	StageSweet16      = "S16"
	StageElite8       = "E8"
	StageFinalFour    = "F4"
	StageChampionship = "NCG"
)

// Stages lists the stage codes in play order.
var Stages = []string{
	StageRoundOf64,
	StageRoundOf32,
	StageSweet16,
	StageElite8,
	StageFinalFour,
	StageChampionship,
}

// GameStatus moves forward only: scheduled, in_progress, final. Rewind is
// the only way back.
type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameFinal      GameStatus = "final"
)

// Slot addresses one of a game's two team positions.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

func (s Slot) Valid() bool { return s == Slot1 || s == Slot2 }

type Team struct {
	ID         uuid.UUID
	Name       string
	Seed       int
	Region     string
	Eliminated bool
}

type Round struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Date      time.Time
	SortOrder int
}

// Edge is an advancement edge: the winner of the source game plays in Slot
// of Next.
type Edge struct {
	Next uuid.UUID
	Slot Slot
}

// Game is one bracket game. Team slots are nil until populated; WinnerID is
// set iff Status is final.
type Game struct {
	ID         uuid.UUID
	RoundID    uuid.UUID
	Team1ID    *uuid.UUID
	Team2ID    *uuid.UUID
	Team1Score *int
	Team2Score *int
	WinnerID   *uuid.UUID
	Status     GameStatus
	StartTime  time.Time
	Edge       *Edge
	Region     string
	Position   int
}

// TeamIn returns the team occupying slot, or nil.
func (g Game) TeamIn(slot Slot) *uuid.UUID {
	switch slot {
	case Slot1:
		return g.Team1ID
	case Slot2:
		return g.Team2ID
	}
	return nil
}

// Populated reports whether both slots hold a team.
func (g Game) Populated() bool {
	return g.Team1ID != nil && g.Team2ID != nil
}

// SlotOf returns the slot teamID occupies.
func (g Game) SlotOf(teamID uuid.UUID) (Slot, bool) {
	switch {
	case g.Team1ID != nil && *g.Team1ID == teamID:
		return Slot1, true
	case g.Team2ID != nil && *g.Team2ID == teamID:
		return Slot2, true
	}
	return 0, false
}

// Opponent returns the other team of a populated game.
func (g Game) Opponent(teamID uuid.UUID) (uuid.UUID, bool) {
	slot, ok := g.SlotOf(teamID)
	if !ok {
		return uuid.Nil, false
	}
	other := g.TeamIn(3 - slot)
	if other == nil {
		return uuid.Nil, false
	}
	return *other, true
}

// Loser returns the losing team of a final game.
func (g Game) Loser() (uuid.UUID, bool) {
	if g.Status != GameFinal || g.WinnerID == nil {
		return uuid.Nil, false
	}
	return g.Opponent(*g.WinnerID)
}

func (g Game) IsFinal() bool { return g.Status == GameFinal }
