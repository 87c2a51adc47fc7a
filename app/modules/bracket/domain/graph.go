package bracketdomain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Graph is the advancement forest held in memory: games indexed by id, each
// with its outgoing edge, and the reverse index of which game feeds each
// (game, slot).
type Graph struct {
	games   map[uuid.UUID]Game
	order   []uuid.UUID
	feeders map[Edge]uuid.UUID
	root    uuid.UUID
}

// NewGraph indexes games and validates the forest invariant.
func NewGraph(games []Game) (*Graph, error) {
	g := &Graph{
		games:   make(map[uuid.UUID]Game, len(games)),
		order:   make([]uuid.UUID, 0, len(games)),
		feeders: make(map[Edge]uuid.UUID, len(games)),
	}
	for _, game := range games {
		if _, dup := g.games[game.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate game %s", ErrInvalidGraph, game.ID)
		}
		g.games[game.ID] = game
		g.order = append(g.order, game.ID)
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) validate() error {
	if len(g.games) == 0 {
		return fmt.Errorf("%w: no games", ErrInvalidGraph)
	}

	roots := 0
	for _, id := range g.order {
		game := g.games[id]
		if game.Edge == nil {
			roots++
			g.root = id
			continue
		}
		e := *game.Edge
		if !e.Slot.Valid() {
			return fmt.Errorf("%w: game %s targets slot %d", ErrInvalidGraph, id, e.Slot)
		}
		if e.Next == id {
			return fmt.Errorf("%w: game %s feeds itself", ErrInvalidGraph, id)
		}
		if _, ok := g.games[e.Next]; !ok {
			return fmt.Errorf("%w: game %s targets unknown game %s", ErrInvalidGraph, id, e.Next)
		}
		if other, taken := g.feeders[e]; taken {
			return fmt.Errorf("%w: games %s and %s both feed slot %d of %s", ErrInvalidGraph, other, id, e.Slot, e.Next)
		}
		g.feeders[e] = id
	}
	if roots != 1 {
		return fmt.Errorf("%w: expected one championship game, found %d", ErrInvalidGraph, roots)
	}

	// Every walk along edges must reach the root within len(games) hops.
	for _, id := range g.order {
		cur, hops := id, 0
		for cur != g.root {
			hops++
			if hops > len(g.games) {
				return fmt.Errorf("%w: cycle through game %s", ErrInvalidGraph, id)
			}
			cur = g.games[cur].Edge.Next
		}
	}
	return nil
}

// Len is the number of games.
func (g *Graph) Len() int { return len(g.games) }

func (g *Graph) Game(id uuid.UUID) (Game, bool) {
	game, ok := g.games[id]
	return game, ok
}

// Games returns the games in load order.
func (g *Graph) Games() []Game {
	out := make([]Game, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.games[id])
	}
	return out
}

// Next returns the game's outgoing edge; false for the championship game.
func (g *Graph) Next(id uuid.UUID) (Edge, bool) {
	game, ok := g.games[id]
	if !ok || game.Edge == nil {
		return Edge{}, false
	}
	return *game.Edge, true
}

// Feeder returns the game whose winner lands in slot of id.
func (g *Graph) Feeder(id uuid.UUID, slot Slot) (Game, bool) {
	fid, ok := g.feeders[Edge{Next: id, Slot: slot}]
	if !ok {
		return Game{}, false
	}
	return g.games[fid], true
}

// Feeders returns the games feeding id, slot 1 first.
func (g *Graph) Feeders(id uuid.UUID) []Game {
	var out []Game
	for _, slot := range []Slot{Slot1, Slot2} {
		if f, ok := g.Feeder(id, slot); ok {
			out = append(out, f)
		}
	}
	return out
}

func (g *Graph) Root() Game { return g.games[g.root] }

// Leaves returns games nothing feeds into, in load order.
func (g *Graph) Leaves() []Game {
	var out []Game
	for _, id := range g.order {
		if len(g.Feeders(id)) == 0 {
			out = append(out, g.games[id])
		}
	}
	return out
}

// Downstream returns the path from id to the championship game, excluding id.
func (g *Graph) Downstream(id uuid.UUID) []uuid.UUID {
	var path []uuid.UUID
	for {
		e, ok := g.Next(id)
		if !ok {
			return path
		}
		path = append(path, e.Next)
		id = e.Next
	}
}

// Upstream returns every game whose result can reach id, nearest first.
func (g *Graph) Upstream(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, f := range g.Feeders(cur) {
			out = append(out, f.ID)
			queue = append(queue, f.ID)
		}
	}
	return out
}

// SlotFill is a winner that belongs in a downstream slot.
type SlotFill struct {
	SourceGameID uuid.UUID
	Target       Edge
	TeamID       uuid.UUID
}

// PendingFills lists, for every final game with a winner and an edge, the
// slot write that propagation owes. Fills already in place are skipped.
func (g *Graph) PendingFills() []SlotFill {
	var fills []SlotFill
	for _, id := range g.order {
		game := g.games[id]
		if !game.IsFinal() || game.WinnerID == nil || game.Edge == nil {
			continue
		}
		target := g.games[game.Edge.Next]
		current := target.TeamIn(game.Edge.Slot)
		if current != nil && *current == *game.WinnerID {
			continue
		}
		fills = append(fills, SlotFill{
			SourceGameID: id,
			Target:       *game.Edge,
			TeamID:       *game.WinnerID,
		})
	}
	return fills
}

// SortRounds orders rounds by date, then sort order.
func SortRounds(rounds []Round) {
	sort.SliceStable(rounds, func(i, j int) bool {
		if !rounds[i].Date.Equal(rounds[j].Date) {
			return rounds[i].Date.Before(rounds[j].Date)
		}
		return rounds[i].SortOrder < rounds[j].SortOrder
	})
}

// NextRound returns the round after current in play order.
func NextRound(rounds []Round, current uuid.UUID) (Round, bool) {
	ordered := append([]Round(nil), rounds...)
	SortRounds(ordered)
	for i, r := range ordered {
		if r.ID == current && i+1 < len(ordered) {
			return ordered[i+1], true
		}
	}
	return Round{}, false
}

// RoundsAfter returns the rounds strictly after the round with code.
func RoundsAfter(rounds []Round, code string) ([]Round, bool) {
	ordered := append([]Round(nil), rounds...)
	SortRounds(ordered)
	for i, r := range ordered {
		if r.Code == code {
			return ordered[i+1:], true
		}
	}
	return nil, false
}
