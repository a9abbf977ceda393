package propagator

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Controller is the adaptive step-size state of one propagation. Step sizes
// are signed seconds; the bounds apply to magnitudes.
type Controller struct {
	minStep     float64
	maxStep     float64
	safety      float64
	maxGrowth   float64
	minShrink   float64
	maxAttempts int

	acceptExp float64
	rejectExp float64

	attempts int
}

// NewController derives the control exponents from the embedded (lower)
// order q: accepted steps grow with E^(-1/(q+1)), rejected steps shrink with
// E^(-1/q).
func NewController(opts Options, embeddedOrder int) *Controller {
	q := float64(embeddedOrder)
	return &Controller{
		minStep:     opts.MinStep.Seconds(),
		maxStep:     opts.MaxStep.Seconds(),
		safety:      opts.Safety,
		maxGrowth:   opts.MaxGrowth,
		minShrink:   opts.MinShrink,
		maxAttempts: opts.MaxAttempts,
		acceptExp:   -1 / (q + 1),
		rejectExp:   -1 / q,
	}
}

// Attempts is the number of tries spent on the current step so far.
func (c *Controller) Attempts() int { return c.attempts }

// Evaluate judges a step of h seconds taken at epoch with scaled error norm
// errNorm. On acceptance it returns the next proposed step and resets the
// attempt counter; on rejection it returns the shrunk retry step. A short
// final step (|h| below the minimum) is always accepted.
func (c *Controller) Evaluate(epoch time.Time, h, errNorm float64) (accepted bool, next float64, err error) {
	c.attempts++
	dir := math.Copysign(1, h)
	mag := math.Abs(h)

	if errNorm <= 1 || mag < c.minStep {
		factor := c.maxGrowth
		if errNorm > 0 {
			factor = math.Min(c.maxGrowth, c.safety*math.Pow(errNorm, c.acceptExp))
		}
		c.attempts = 0
		return true, dir * clamp(mag*factor, c.minStep, c.maxStep), nil
	}

	if c.attempts >= c.maxAttempts {
		return false, h, &dynamo.StepSizeConvergenceError{
			Epoch: epoch, Step: h, ErrorNorm: errNorm, Attempts: c.attempts,
			Reason: "maximum attempts reached",
		}
	}
	if mag <= c.minStep {
		return false, h, &dynamo.StepSizeConvergenceError{
			Epoch: epoch, Step: h, ErrorNorm: errNorm, Attempts: c.attempts,
			Reason: "rejected at minimum step",
		}
	}

	factor := c.minShrink
	if !math.IsNaN(errNorm) && !math.IsInf(errNorm, 0) {
		factor = math.Max(c.minShrink, c.safety*math.Pow(errNorm, c.rejectExp))
	}
	return false, dir * math.Max(mag*factor, c.minStep), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
