package queue

import "errors"

// Sentinel errors.
var (
	ErrClosed = errors.New("refresh queue closed")
	ErrFull   = errors.New("refresh queue full")
)
