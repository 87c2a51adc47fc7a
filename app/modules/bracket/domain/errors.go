package bracketdomain

import "errors"

// ErrInvalidGraph wraps every advancement-graph validation failure.
var ErrInvalidGraph = errors.New("invalid bracket graph")
