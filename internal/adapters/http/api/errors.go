package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("section unavailable")
	ErrBackpressure = errors.New("backpressure")
)
