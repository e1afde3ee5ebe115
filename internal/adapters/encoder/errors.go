package encoder

import "errors"

// Sentinel kinds for encoder construction errors. Runtime encode failures
// wrap embedding.ErrEncodingUnavailable instead so callers can degrade.
var (
	ErrMissingBaseURL = errors.New("encoder base url is required")
	ErrMissingAPIKey  = errors.New("encoder api key is required")
)
