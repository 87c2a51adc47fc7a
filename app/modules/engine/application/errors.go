package engineservice

import "errors"

var (
	// ErrWinnerNotInGame indicates the reported winner occupies neither slot.
	ErrWinnerNotInGame = errors.New("winner is not in the game")

	// ErrGameNotReady indicates a game without both teams was finalized.
	ErrGameNotReady = errors.New("game does not have both teams")

	// ErrWinnerConflict indicates a final game was finalized again with a
	// different winner. Only a rewind can change a recorded result.
	ErrWinnerConflict = errors.New("game already final with a different winner")

	// ErrInvalidScope indicates a rewind scope that is neither a round id
	// nor "all".
	ErrInvalidScope = errors.New("invalid rewind scope")
)
