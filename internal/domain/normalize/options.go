package normalize

import (
	"github.com/okian/rosterlens/pkg/logger"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMatchThreshold sets the minimum Jaro-Winkler similarity for a fuzzy match.
func WithMatchThreshold(t float64) Option {
	return func(n *Normalizer) {
		if t > 0 && t <= 1 {
			n.threshold = t
		}
	}
}

// WithSchema registers or replaces a source schema.
func WithSchema(s Schema) Option {
	return func(n *Normalizer) {
		if s.Name != "" {
			n.schemas[s.Name] = s
		}
	}
}

// WithLogger sets the normalizer logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}
