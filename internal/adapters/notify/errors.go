package notify

import "errors"

// Sentinel kinds for notification errors.
var (
	ErrMissingFrom   = errors.New("mail from address is required")
	ErrNoRecipient   = errors.New("user has no email address")
	ErrNotConfigured = errors.New("smtp notifications not configured")
)
