package optim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/analysis"
	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/experiment"
)

// Grid parameters understood by StepControl.
const (
	ParamTolerance = "tolerance"
	ParamMaxStep   = "max_step"
)

// StepControl scores a step-control setting by the derivative evaluations a
// propagation of cfg needs. Settings whose final position is further than
// maxError km from want score +Inf.
//
// tolerance sets both the relative and absolute tolerance; max_step is in
// seconds.
func StepControl(cfg *config.Config, want dynamo.State, maxError float64) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		trial := cfg.Clone()
		for name, v := range params {
			switch name {
			case ParamTolerance:
				trial.Integrator.RelTol, trial.Integrator.AbsTol = v, v
			case ParamMaxStep:
				trial.Integrator.MaxStep = dynamo.Seconds(v)
				if trial.Integrator.InitialStep > trial.Integrator.MaxStep {
					trial.Integrator.InitialStep = 0
				}
			default:
				return 0, fmt.Errorf("unknown parameter %q", name)
			}
		}

		exp := experiment.New(trial, nil, nil)
		if err := exp.Setup(); err != nil {
			return 0, err
		}
		out, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		dp, _ := analysis.PosVelError(out.Result.Final().State, want)
		if dp > maxError {
			return math.Inf(1), nil
		}
		return float64(out.Result.Stats.Evaluations), nil
	}
}

// MaxSteps converts durations to the seconds StepControl expects.
func MaxSteps(ds ...time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.Seconds()
	}
	return out
}
