package tiers

import "errors"

// ErrDegenerateInput marks a group too small or too uniform to cluster. It never
// leaves this package: Compute resolves it with a single tier.
var ErrDegenerateInput = errors.New("degenerate clustering input")
