package match

import "errors"

// Sentinel kinds for matching errors.
var (
	// ErrIndexUnavailable signals the vector index is down. The pipeline
	// falls back to scanning store candidates rather than failing the call.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrNeedsProfileData signals the query entity has no skills to match
	// on. Ranking short-circuits instead of scoring an empty skill set.
	ErrNeedsProfileData = errors.New("profile has no skills")

	// ErrUnknownStrategy signals an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown matching strategy")
)
