package integrators

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// StepOutcome describes one executed step.
type StepOutcome struct {
	// Step is the signed step size in seconds.
	Step float64
	// ErrorNorm is the scaled error estimate; always zero for fixed-step
	// tableaus.
	ErrorNorm float64
	// Evaluations counts derivative calls made by this step.
	Evaluations int
}

// Stepper executes single Runge–Kutta steps. It owns the stage buffers for
// one propagation and must not be shared between goroutines; the tableau it
// reads is shared.
type Stepper struct {
	tab *Tableau
	tol Tolerance
	dim int

	k     []dynamo.State
	stage dynamo.State
	errv  dynamo.State

	// k[0] is reused when the next call starts from the last input (a
	// retried step) or from the last output of an FSAL table.
	lastIn       dynamo.State
	lastInEpoch  time.Time
	lastOut      dynamo.State
	lastOutEpoch time.Time
	haveIn       bool
	haveOut      bool
}

func NewStepper(tab *Tableau, dim int, tol Tolerance) *Stepper {
	s := &Stepper{tab: tab, tol: tol}
	s.ensureScratch(dim)
	return s
}

func (s *Stepper) ensureScratch(n int) {
	if s.dim == n && len(s.k) == s.tab.Stages {
		return
	}
	s.dim = n
	s.k = make([]dynamo.State, s.tab.Stages)
	for i := range s.k {
		s.k[i] = make(dynamo.State, n)
	}
	s.stage = make(dynamo.State, n)
	s.errv = make(dynamo.State, n)
	s.lastIn = make(dynamo.State, n)
	s.lastOut = make(dynamo.State, n)
	s.Reset()
}

func (s *Stepper) Tableau() *Tableau { return s.tab }

func (s *Stepper) SetTolerance(tol Tolerance) { s.tol = tol }

// Reset drops the cached first stage.
func (s *Stepper) Reset() {
	s.haveIn = false
	s.haveOut = false
}

// Step advances x at epoch by h seconds and writes the high order solution
// into out, which must not alias x. Identical inputs give bit-identical
// outputs.
func (s *Stepper) Step(sys dynamo.System, epoch time.Time, x dynamo.State, h float64, out dynamo.State) (StepOutcome, error) {
	n := len(x)
	if len(out) != n {
		return StepOutcome{}, fmt.Errorf("%w: state %d, output %d", dynamo.ErrDimensionMismatch, n, len(out))
	}
	s.ensureScratch(n)
	tab := s.tab
	outcome := StepOutcome{Step: h}

	switch {
	case s.haveIn && epoch.Equal(s.lastInEpoch) && floats.Equal(x, s.lastIn):
		// k[0] still holds f(epoch, x).
	case tab.FSAL && s.haveOut && epoch.Equal(s.lastOutEpoch) && floats.Equal(x, s.lastOut):
		copy(s.k[0], s.k[tab.Stages-1])
	default:
		if err := s.derive(sys, epoch, x, s.k[0]); err != nil {
			s.Reset()
			return outcome, err
		}
		outcome.Evaluations++
	}
	copy(s.lastIn, x)
	s.lastInEpoch = epoch
	s.haveIn = true
	s.haveOut = false

	for i := 1; i < tab.Stages; i++ {
		copy(s.stage, x)
		for j, a := range tab.A[i] {
			if a != 0 {
				floats.AddScaled(s.stage, h*a, s.k[j])
			}
		}
		stageEpoch := epoch.Add(dynamo.Seconds(tab.C[i] * h))
		if err := s.derive(sys, stageEpoch, s.stage, s.k[i]); err != nil {
			s.Reset()
			return outcome, err
		}
		outcome.Evaluations++
	}

	copy(out, x)
	for i, b := range tab.B {
		if b != 0 {
			floats.AddScaled(out, h*b, s.k[i])
		}
	}

	if tab.Adaptive() {
		// h * sum((b_i - bhat_i) * k_i) is x_high - x_low without the
		// cancellation of differencing the two solutions.
		for c := range s.errv {
			s.errv[c] = 0
		}
		for i := range tab.B {
			if d := tab.B[i] - tab.BHat[i]; d != 0 {
				floats.AddScaled(s.errv, h*d, s.k[i])
			}
		}
		outcome.ErrorNorm = s.tol.Estimate(s.errv, x, out)
	}

	if tab.FSAL {
		copy(s.lastOut, out)
		s.lastOutEpoch = epoch.Add(dynamo.Seconds(h))
		s.haveOut = true
	}

	return outcome, nil
}

func (s *Stepper) derive(sys dynamo.System, epoch time.Time, x, dx dynamo.State) error {
	err := sys.Derive(epoch, x, dx)
	if err == nil {
		return nil
	}
	var evalErr *dynamo.EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	return &dynamo.EvaluationError{Epoch: epoch, State: x.Clone(), Err: err}
}
