package repository

import "errors"

// ErrNotFound signals the requested record does not exist. Callers map it
// to their own not-found semantics (the HTTP layer returns 404).
var ErrNotFound = errors.New("record not found")
