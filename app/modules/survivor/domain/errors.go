package survivordomain

import "errors"

// ErrDuplicateTeamPick indicates an entry used the same team in two rounds.
var ErrDuplicateTeamPick = errors.New("team picked twice by one entry")
