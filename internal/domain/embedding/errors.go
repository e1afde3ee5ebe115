package embedding

import "errors"

// Sentinel kinds for embedding errors.
var (
	// ErrEncodingUnavailable signals that the encoder backend is down.
	// Callers must fail the operation; silently returning a zero vector
	// would corrupt downstream cosine similarity.
	ErrEncodingUnavailable = errors.New("encoding backend unavailable")

	// ErrDimensionMismatch signals a vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
