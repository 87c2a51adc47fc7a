package survivordomain

import (
	"fmt"

	"github.com/google/uuid"
)

// CheckOneUsePerTeam verifies that no entry holds two picks on the same
// team. The engine does not enforce this on write; the check backs tests and
// the standings export.
func CheckOneUsePerTeam(picks []Pick) error {
	seen := make(map[[2]uuid.UUID]uuid.UUID, len(picks))
	for _, p := range picks {
		key := [2]uuid.UUID{p.EntryID, p.TeamID}
		if round, dup := seen[key]; dup {
			return fmt.Errorf("%w: entry %s team %s in rounds %s and %s", ErrDuplicateTeamPick, p.EntryID, p.TeamID, round, p.RoundID)
		}
		seen[key] = p.RoundID
	}
	return nil
}
