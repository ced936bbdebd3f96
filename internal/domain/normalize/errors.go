package normalize

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrIdentityResolution = errors.New("identity resolution failed")
	ErrUnknownSchema      = errors.New("unknown source schema")
)

// IdentityResolutionError reports a roster or points row that matched no
// ranked player above the confidence threshold. It is per record and never
// fatal.
type IdentityResolutionError struct {
	Source   string  `json:"source"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Team     string  `json:"team,omitempty"`
	Best     float64 `json:"best_score"`
}

func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("%s: %s (%s %s) best match %.3f", ErrIdentityResolution, e.Name, e.Position, e.Team, e.Best)
}

func (e *IdentityResolutionError) Unwrap() error { return ErrIdentityResolution }
