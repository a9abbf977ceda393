package dynamo

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors for propagation.
var (
	// ErrEvaluation matches every EvaluationError.
	ErrEvaluation = errors.New("dynamo: dynamics evaluation failed")

	// ErrStepSizeConvergence matches every StepSizeConvergenceError.
	ErrStepSizeConvergence = errors.New("dynamo: step size failed to converge")

	// ErrConfiguration matches every ConfigurationError.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrSingularState indicates a state where a model is singular, such as
	// a zero radius.
	ErrSingularState = errors.New("dynamo: singular state")

	// ErrBelowSurface indicates a position inside the central body.
	ErrBelowSurface = errors.New("dynamo: position below body surface")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// EvaluationError reports a dynamics contributor that could not produce a
// derivative. It is never retried.
type EvaluationError struct {
	Epoch  time.Time
	State  State
	Source string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("dynamo: evaluating %s at %s: %v", e.Source, e.Epoch.Format(time.RFC3339Nano), e.Err)
	}
	return fmt.Sprintf("dynamo: evaluating dynamics at %s: %v", e.Epoch.Format(time.RFC3339Nano), e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

// StepSizeConvergenceError reports an adaptive step that could not meet the
// tolerance.
type StepSizeConvergenceError struct {
	Epoch     time.Time
	Step      float64 // seconds, signed
	ErrorNorm float64
	Attempts  int
	Reason    string
}

func (e *StepSizeConvergenceError) Error() string {
	return fmt.Sprintf("dynamo: step size failed to converge at %s: %s (step %gs, error %g, %d attempts)",
		e.Epoch.Format(time.RFC3339Nano), e.Reason, e.Step, e.ErrorNorm, e.Attempts)
}

func (e *StepSizeConvergenceError) Is(target error) bool { return target == ErrStepSizeConvergence }

// ConfigurationError reports inconsistent propagation settings. It is raised
// before any stepping.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dynamo: invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configf builds a ConfigurationError with a formatted reason.
func Configf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
