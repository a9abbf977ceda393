// Package analysis post-processes propagation results.
//
//   - [Compare]: position and velocity error of a trajectory against a
//     reference such as [KeplerReference]
//   - [DivergenceRate]: exponential separation rate of two trajectories
//   - [Series] and [Radius]: per-sample scalar series for plotting
//
// # Accuracy Check
//
//	ref := analysis.KeplerReference(forces.Earth.GM, epoch, x0)
//	cmp, err := analysis.Compare(result, ref)
//	if cmp.MaxPosition > 1e-3 {
//	    // worse than a metre somewhere along the arc
//	}
package analysis
