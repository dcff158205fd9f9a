package dice

import (
	"fmt"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger so every random decision made while
// building a world is logged at debug level with its label, spec and value.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Between draws from r and logs the draw.
func (r *Roller) Between(label string, rng Range) Draw {
	return r.log(Draw{Label: label, Spec: rng.String(), Value: Between(rng, r.src)})
}

// Choose picks one of values and logs the draw.
//
// Precondition: len(values) > 0.
func (r *Roller) Choose(label string, values []int) Draw {
	return r.log(Draw{Label: label, Spec: fmt.Sprint(values), Value: Choose(values, r.src)})
}

// Index picks an index in [0, n) and logs the draw.
//
// Precondition: n > 0.
func (r *Roller) Index(label string, n int) Draw {
	return r.log(Draw{Label: label, Spec: fmt.Sprintf("index<%d", n), Value: Index(n, r.src)})
}

func (r *Roller) log(d Draw) Draw {
	r.logger.Debug("random draw",
		zap.String("label", d.Label),
		zap.String("spec", d.Spec),
		zap.Int("value", d.Value),
	)
	return d
}
