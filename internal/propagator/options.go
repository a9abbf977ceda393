package propagator

import (
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/integrators"
)

const (
	DefaultInitialStep = 60 * time.Second
	DefaultMinStep     = time.Millisecond
	DefaultMaxStep     = 2700 * time.Second
	DefaultTolerance   = 1e-12
	DefaultMaxAttempts = 50
	DefaultSafety      = 0.9
	DefaultMaxGrowth   = 10.0
	DefaultMinShrink   = 0.2
)

// Options is the propagation configuration. RK4Fixed reads FixedStep; the
// adaptive methods read the step bounds and tolerances.
type Options struct {
	Method integrators.Method

	FixedStep time.Duration

	MinStep     time.Duration
	MaxStep     time.Duration
	InitialStep time.Duration // zero means MaxStep
	RelTol      float64
	AbsTol      float64
	ScaleFloor  float64
	MaxAttempts int
	Norm        integrators.ErrorNorm

	Safety    float64
	MaxGrowth float64
	MinShrink float64

	// SampleEvery records the first accepted step at or past each multiple
	// of the cadence. Zero records every accepted step.
	SampleEvery time.Duration

	Observers []dynamo.Observer
	Logger    log.Logger
}

func DefaultOptions() Options {
	return Options{
		Method:      integrators.Dormand78,
		MinStep:     DefaultMinStep,
		MaxStep:     DefaultMaxStep,
		InitialStep: DefaultInitialStep,
		RelTol:      DefaultTolerance,
		AbsTol:      DefaultTolerance,
		MaxAttempts: DefaultMaxAttempts,
		Norm:        integrators.NormMax,
		Safety:      DefaultSafety,
		MaxGrowth:   DefaultMaxGrowth,
		MinShrink:   DefaultMinShrink,
	}
}

func FixedStepOptions(step time.Duration) Options {
	opts := DefaultOptions()
	opts.Method = integrators.RK4Fixed
	opts.FixedStep = step
	return opts
}

// AdaptiveOptions uses the given bounds and a single tolerance for both the
// relative and absolute terms. The first step is the maximum step.
func AdaptiveOptions(method integrators.Method, minStep, maxStep time.Duration, tol float64) Options {
	opts := DefaultOptions()
	opts.Method = method
	opts.MinStep = minStep
	opts.MaxStep = maxStep
	opts.InitialStep = 0
	opts.RelTol = tol
	opts.AbsTol = tol
	return opts
}

func (o Options) Adaptive() bool {
	t := o.Method.Tableau()
	return t != nil && t.Adaptive()
}

func (o Options) Tolerance() integrators.Tolerance {
	return integrators.Tolerance{Rel: o.RelTol, Abs: o.AbsTol, Floor: o.ScaleFloor, Norm: o.Norm}
}

func (o Options) firstStep() time.Duration {
	if !o.Adaptive() {
		return o.FixedStep
	}
	if o.InitialStep == 0 {
		return o.MaxStep
	}
	return o.InitialStep
}

// Validate reports the first inconsistency as a *dynamo.ConfigurationError.
func (o Options) Validate() error {
	if !o.Method.Valid() {
		return dynamo.Configf("method", "is unknown (%d)", int(o.Method))
	}
	if o.SampleEvery < 0 {
		return dynamo.Configf("sample_every", "must not be negative, got %v", o.SampleEvery)
	}
	if !o.Adaptive() {
		if o.FixedStep <= 0 {
			return dynamo.Configf("fixed_step", "must be positive, got %v", o.FixedStep)
		}
		return nil
	}
	switch {
	case o.MinStep <= 0:
		return dynamo.Configf("min_step", "must be positive, got %v", o.MinStep)
	case o.MaxStep <= 0:
		return dynamo.Configf("max_step", "must be positive, got %v", o.MaxStep)
	case o.MinStep > o.MaxStep:
		return dynamo.Configf("min_step", "%v exceeds max_step %v", o.MinStep, o.MaxStep)
	case o.InitialStep < 0:
		return dynamo.Configf("initial_step", "must not be negative, got %v", o.InitialStep)
	case o.InitialStep != 0 && (o.InitialStep < o.MinStep || o.InitialStep > o.MaxStep):
		return dynamo.Configf("initial_step", "%v outside [%v, %v]", o.InitialStep, o.MinStep, o.MaxStep)
	case !(o.RelTol > 0) || math.IsInf(o.RelTol, 0):
		return dynamo.Configf("relative_tolerance", "must be positive, got %g", o.RelTol)
	case !(o.AbsTol > 0) || math.IsInf(o.AbsTol, 0):
		return dynamo.Configf("absolute_tolerance", "must be positive, got %g", o.AbsTol)
	case o.ScaleFloor < 0:
		return dynamo.Configf("scale_floor", "must not be negative, got %g", o.ScaleFloor)
	case o.MaxAttempts < 1:
		return dynamo.Configf("max_attempts", "must be at least 1, got %d", o.MaxAttempts)
	case !o.Norm.Valid():
		return dynamo.Configf("norm", "is unknown (%d)", int(o.Norm))
	case !(o.Safety > 0 && o.Safety <= 1):
		return dynamo.Configf("safety", "must be in (0, 1], got %g", o.Safety)
	case !(o.MaxGrowth > 1):
		return dynamo.Configf("max_growth", "must exceed 1, got %g", o.MaxGrowth)
	case !(o.MinShrink > 0 && o.MinShrink < 1):
		return dynamo.Configf("min_shrink", "must be in (0, 1), got %g", o.MinShrink)
	}
	return nil
}
