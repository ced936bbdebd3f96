package trade

import "github.com/okian/rosterlens/internal/domain/model"

// Option configures a Pool.
type Option func(*Pool)

// WithCurveExponent sets the exponent of the inverted-rank curve.
func WithCurveExponent(e float64) Option {
	return func(p *Pool) {
		if e > 0 {
			p.curve = e
		}
	}
}

// WithScarcityExponent sets how strongly shallow positions are boosted.
// Zero disables the depth-derived multiplier.
func WithScarcityExponent(e float64) Option {
	return func(p *Pool) {
		if e >= 0 {
			p.scarcityExp = e
		}
	}
}

// WithScarcity pins the multiplier for positions instead of deriving it from depth.
func WithScarcity(m map[string]float64) Option {
	return func(p *Pool) {
		for k, v := range m {
			if v > 0 {
				p.scarcityOverride[model.ParsePosition(k)] = v
			}
		}
	}
}

// WithAgeDecay sets the per-year decay rate past the position threshold.
func WithAgeDecay(rate float64) Option {
	return func(p *Pool) {
		if rate >= 0 {
			p.ageDecay = rate
		}
	}
}

// WithAgeThresholds sets the age per position after which value decays.
func WithAgeThresholds(m map[string]float64) Option {
	return func(p *Pool) {
		for k, v := range m {
			p.ageThreshold[model.ParsePosition(k)] = v
		}
	}
}

// WithScale sets the value of the single most valuable player.
func WithScale(max float64) Option {
	return func(p *Pool) {
		if max > 0 {
			p.scale = max
		}
	}
}
