package survivordb

import (
	"time"

	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Pool struct {
	bun.BaseModel `bun:"table:pools,alias:p"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid"`
	Name             string     `bun:"name,notnull"`
	Status           string     `bun:"status,notnull,default:'open'"`
	CompletedRoundID *uuid.UUID `bun:"completed_round_id,type:uuid"`
	CreatedAt        time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
}

// PoolChampion is one winner of a complete pool; ties produce several rows.
type PoolChampion struct {
	bun.BaseModel `bun:"table:pool_champions,alias:pc"`

	PoolID    uuid.UUID `bun:"pool_id,pk,type:uuid"`
	EntryID   uuid.UUID `bun:"entry_id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	RoundID   uuid.UUID `bun:"round_id,notnull,type:uuid"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

type Entry struct {
	bun.BaseModel `bun:"table:entries,alias:e"`

	ID                 uuid.UUID  `bun:"id,pk,type:uuid"`
	PoolID             uuid.UUID  `bun:"pool_id,notnull,type:uuid"`
	UserID             uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	Name               string     `bun:"name,notnull"`
	IsEliminated       bool       `bun:"is_eliminated,notnull,default:false"`
	EliminationReason  *string    `bun:"elimination_reason"`
	EliminationRoundID *uuid.UUID `bun:"elimination_round_id,type:uuid"`
}

// Pick is unique per (entry_id, round_id). IsCorrect is written once, by
// grading.
type Pick struct {
	bun.BaseModel `bun:"table:picks,alias:pk"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	EntryID   uuid.UUID `bun:"entry_id,notnull,type:uuid"`
	RoundID   uuid.UUID `bun:"round_id,notnull,type:uuid"`
	TeamID    uuid.UUID `bun:"team_id,notnull,type:uuid"`
	IsCorrect *bool     `bun:"is_correct"`
}

func (p *Pool) ToDomain() survivordomain.Pool {
	return survivordomain.Pool{
		ID:               p.ID,
		Name:             p.Name,
		Status:           survivordomain.PoolStatus(p.Status),
		CompletedRoundID: p.CompletedRoundID,
	}
}

func (c *PoolChampion) ToDomain() survivordomain.Champion {
	return survivordomain.Champion{
		PoolID:    c.PoolID,
		EntryID:   c.EntryID,
		UserID:    c.UserID,
		RoundID:   c.RoundID,
		CreatedAt: c.CreatedAt,
	}
}

func (e *Entry) ToDomain() survivordomain.Entry {
	out := survivordomain.Entry{
		ID:                 e.ID,
		PoolID:             e.PoolID,
		UserID:             e.UserID,
		Name:               e.Name,
		Eliminated:         e.IsEliminated,
		EliminationRoundID: e.EliminationRoundID,
	}
	if e.EliminationReason != nil {
		c := survivordomain.EliminationCause(*e.EliminationReason)
		out.Cause = &c
	}
	return out
}

func (p *Pick) ToDomain() survivordomain.Pick {
	return survivordomain.Pick{
		ID:        p.ID,
		EntryID:   p.EntryID,
		RoundID:   p.RoundID,
		TeamID:    p.TeamID,
		IsCorrect: p.IsCorrect,
	}
}

func PoolFromDomain(p survivordomain.Pool) *Pool {
	status := string(p.Status)
	if status == "" {
		status = string(survivordomain.PoolOpen)
	}
	return &Pool{ID: p.ID, Name: p.Name, Status: status, CompletedRoundID: p.CompletedRoundID}
}

func EntryFromDomain(e survivordomain.Entry) *Entry {
	out := &Entry{
		ID:                 e.ID,
		PoolID:             e.PoolID,
		UserID:             e.UserID,
		Name:               e.Name,
		IsEliminated:       e.Eliminated,
		EliminationRoundID: e.EliminationRoundID,
	}
	if e.Cause != nil {
		c := string(*e.Cause)
		out.EliminationReason = &c
	}
	return out
}

func PickFromDomain(p survivordomain.Pick) *Pick {
	return &Pick{ID: p.ID, EntryID: p.EntryID, RoundID: p.RoundID, TeamID: p.TeamID, IsCorrect: p.IsCorrect}
}

func entriesToDomain(rows []Entry) []survivordomain.Entry {
	out := make([]survivordomain.Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

func picksToDomain(rows []Pick) []survivordomain.Pick {
	out := make([]survivordomain.Pick, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}
