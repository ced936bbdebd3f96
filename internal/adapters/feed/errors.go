package feed

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrFetch    = errors.New("feed fetch failed")
	ErrDecode   = errors.New("feed payload not recognized")
	ErrNoLeague = errors.New("league has no rosters")
)

// FetchError reports an unreachable or failing upstream. It matches ErrFetch.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

func fetchErr(source string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Source: source, Err: err}
}
