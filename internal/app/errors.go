package app

import "errors"

// Sentinel kinds for service wiring errors.
var (
	ErrUnknownEncoderProvider = errors.New("unknown encoder provider")
	ErrUnknownIndexProvider   = errors.New("unknown index provider")
)
