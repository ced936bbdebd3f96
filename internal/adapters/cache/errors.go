package cache

import "errors"

// Sentinel errors for cache stores.
var (
	ErrStore  = errors.New("cache store unavailable")
	ErrDecode = errors.New("cache entry decode failed")
	ErrClosed = errors.New("cache store closed")
)
