// Package dynamo provides the core primitives shared by the propagation
// engine.
//
//   - [State]: fixed-dimension state vector
//   - [System]: derivative contract, f(epoch, x) written into dx
//   - [Contributor]: one additive term of a composite derivative
//   - [Composite]: ordered sum of contributors
//   - [Observer]: callback for accepted steps
//
// Failures are reported through [EvaluationError],
// [StepSizeConvergenceError] and [ConfigurationError], which match the
// [ErrEvaluation], [ErrStepSizeConvergence] and [ErrConfiguration]
// sentinels under errors.Is.
//
// # Example
//
//	dyn := dynamo.NewComposite(6, forces.NewTwoBody(forces.Earth.GM), forces.NewZonal(forces.Earth, false))
//	prop, _ := propagator.New(dyn, propagator.DefaultOptions())
//	result, _ := prop.For(ctx, epoch, x0, 24*time.Hour)
//
// # Thread Safety
//
// Composite values and the built-in contributors hold no mutable state and
// may be shared across goroutines. Observers are called from the goroutine
// running the propagation.
package dynamo
