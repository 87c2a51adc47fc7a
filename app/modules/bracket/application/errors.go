package bracketservice

import "errors"

var (
	// ErrGameNotFound indicates the game id is unknown.
	ErrGameNotFound = errors.New("game not found")

	// ErrRoundNotFound indicates the round id or code is unknown.
	ErrRoundNotFound = errors.New("round not found")

	// ErrInvalidBracket indicates a bracket document failed validation.
	ErrInvalidBracket = errors.New("invalid bracket document")
)
