package survivordomain

import "github.com/google/uuid"

// Tier ranks elimination causes for the tie rule: entries that played and
// lost (tier 1) beat entries that forfeited by not picking (tier 2).
func Tier(c EliminationCause) int {
	switch c {
	case CauseWrongPick, CauseNoAvailablePicks:
		return 1
	case CauseMissedPick:
		return 2
	}
	return 0
}

// ResolutionKind is the champion resolver's verdict for one pool.
type ResolutionKind string

const (
	ResolutionNone        ResolutionKind = "none"
	ResolutionChampion    ResolutionKind = "champion"
	ResolutionCoChampions ResolutionKind = "co_champions"
)

// Resolution names the entries that win a pool. For co-champions the
// entries must be restored before they are declared.
type Resolution struct {
	Kind    ResolutionKind
	Entries []Entry
}

// Resolve decides a pool's outcome after roundID's sweeps. alive holds the
// pool's alive entries; eliminated holds the entries eliminated in roundID.
// Earlier eliminations are never candidates.
func Resolve(roundID uuid.UUID, alive, eliminated []Entry) Resolution {
	switch {
	case len(alive) == 1:
		return Resolution{Kind: ResolutionChampion, Entries: alive}
	case len(alive) > 1:
		return Resolution{Kind: ResolutionNone}
	}

	var tier1, tier2 []Entry
	for _, e := range eliminated {
		if !e.EliminatedIn(roundID) || e.Cause == nil {
			continue
		}
		switch Tier(*e.Cause) {
		case 1:
			tier1 = append(tier1, e)
		case 2:
			tier2 = append(tier2, e)
		}
	}
	switch {
	case len(tier1) > 0:
		return Resolution{Kind: ResolutionCoChampions, Entries: tier1}
	case len(tier2) > 0:
		return Resolution{Kind: ResolutionCoChampions, Entries: tier2}
	}
	return Resolution{Kind: ResolutionNone}
}

// HasAvailablePick reports whether some team in available has not been used
// by picks. Picks for excludeRound do not count as used: an entry's pending
// pick for the round it is about to play still leaves that team open to it.
func HasAvailablePick(available []uuid.UUID, picks []Pick, excludeRound uuid.UUID) bool {
	used := make(map[uuid.UUID]bool, len(picks))
	for _, p := range picks {
		if p.RoundID == excludeRound {
			continue
		}
		used[p.TeamID] = true
	}
	for _, t := range available {
		if !used[t] {
			return true
		}
	}
	return false
}

// Standing is one entry's row in a pool's standings.
type Standing struct {
	Entry Entry
	Picks map[uuid.UUID]Pick // by round id
}

// Counts summarizes a pool's entries.
type Counts struct {
	Total      int
	Alive      int
	Eliminated int
}

// CountEntries tallies alive and eliminated entries.
func CountEntries(entries []Entry) Counts {
	c := Counts{Total: len(entries)}
	for _, e := range entries {
		if e.Eliminated {
			c.Eliminated++
		} else {
			c.Alive++
		}
	}
	return c
}
