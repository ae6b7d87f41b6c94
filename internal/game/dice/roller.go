package dice

import (
	"math"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide the draws the simulation needs:
// inclusive integer ranges, one-in-n checks, uniform reals, exponential
// variates, uniform choice and dice expressions.
// All draws are logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil || logger == nil {
		panic("dice: NewLoggedRoller precondition violated: src and logger must be non-nil")
	}
	return &Roller{src: src, logger: logger}
}

// IntRange returns a uniform int in the inclusive range [lo, hi].
//
// Precondition: lo <= hi.
// Postcondition: lo <= result <= hi.
func (r *Roller) IntRange(lo, hi int) int {
	if hi < lo {
		panic("dice: IntRange precondition violated: lo must not exceed hi")
	}
	v := lo + r.src.Intn(hi-lo+1)
	r.logger.Debug("int range", zap.Int("lo", lo), zap.Int("hi", hi), zap.Int("value", v))
	return v
}

// OneIn reports true with probability 1/n.
//
// Precondition: n >= 1.
func (r *Roller) OneIn(n int) bool {
	return r.IntRange(0, n-1) == 0
}

// Real returns a uniform float in [0.0, 1.0).
func (r *Roller) Real() float64 {
	v := r.src.Float64()
	r.logger.Debug("real", zap.Float64("value", v))
	return v
}

// Exponential returns an exponentially distributed value with the given mean.
//
// Precondition: mean > 0.
// Postcondition: result >= 0.
func (r *Roller) Exponential(mean float64) float64 {
	if mean <= 0 {
		panic("dice: Exponential precondition violated: mean must be > 0")
	}
	v := -mean * math.Log(1-r.src.Float64())
	r.logger.Debug("exponential", zap.Float64("mean", mean), zap.Float64("value", v))
	return v
}

// Index returns a uniform index into a collection of length n.
//
// Precondition: n > 0.
func (r *Roller) Index(n int) int {
	if n <= 0 {
		panic("dice: Index precondition violated: n must be > 0")
	}
	return r.IntRange(0, n-1)
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
// Postcondition: result.Total() is within [expr.Min(), expr.Max()].
func (r *Roller) Roll(expr Expression) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = r.src.Intn(expr.Sides) + 1
	}
	result := RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Choice returns a uniformly chosen element of items.
//
// Precondition: items must be non-empty.
func Choice[T any](r *Roller, items []T) T {
	if len(items) == 0 {
		panic("dice: Choice precondition violated: items must be non-empty")
	}
	return items[r.Index(len(items))]
}
