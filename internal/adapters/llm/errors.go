package llm

import "errors"

// Sentinel kinds for generation errors.
var (
	ErrMissingAPIKey         = errors.New("generation api key is required")
	ErrGenerationUnavailable = errors.New("text generation unavailable")
)
