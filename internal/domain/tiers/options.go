package tiers

import (
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxTiers bounds the number of tiers per group.
func WithMaxTiers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTiers = n
		}
	}
}

// WithCutoffs sets the tiering depth per position for dynasty/draft and weekly
// scope. Players below the depth go to the unranked tier.
func WithCutoffs(seasonal, weekly map[string]int) Option {
	return func(e *Engine) {
		if seasonal != nil {
			e.cutoffs = toPositionMap(seasonal)
		}
		if weekly != nil {
			e.weeklyCutoffs = toPositionMap(weekly)
		}
	}
}

// WithVarianceFloor sets the per-player variance below which extra tiers stop
// paying for themselves.
func WithVarianceFloor(v float64) Option {
	return func(e *Engine) {
		if v > 0 {
			e.varianceFloor = v
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func toPositionMap(in map[string]int) map[model.Position]int {
	out := make(map[model.Position]int, len(in))
	for k, v := range in {
		out[model.ParsePosition(k)] = v
	}
	return out
}
