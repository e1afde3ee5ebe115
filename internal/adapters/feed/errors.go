package feed

import "errors"

// Sentinel kinds for feed errors.
var (
	// ErrMissingCredentials signals a source was constructed without its
	// API credentials.
	ErrMissingCredentials = errors.New("feed credentials are required")

	// ErrFeedUnavailable signals a provider request failed. Multi-source
	// fetches keep going with the remaining providers.
	ErrFeedUnavailable = errors.New("feed provider unavailable")
)
