package assistant

import "errors"

// Sentinel kinds for assistant errors.
var (
	ErrEmptyMessage  = errors.New("chat message is empty")
	ErrMissingUser   = errors.New("chat requires a user profile")
	ErrNotConfigured = errors.New("chat assistant not configured")
)
