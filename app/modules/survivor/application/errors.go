package survivorservice

import "errors"

// ErrPoolNotFound indicates the pool id is unknown.
var ErrPoolNotFound = errors.New("pool not found")
