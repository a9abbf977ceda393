package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/propagator"
)

// Reference returns the true state at an epoch.
type Reference func(epoch time.Time) (dynamo.State, error)

// KeplerReference is the analytic two-body solution through x0 at epoch.
func KeplerReference(gm float64, epoch time.Time, x0 dynamo.State) Reference {
	x0 = x0.Clone()
	return func(at time.Time) (dynamo.State, error) {
		return forces.Kepler(gm, x0, at.Sub(epoch))
	}
}

// Comparison summarises position (km) and velocity (km/s) errors.
type Comparison struct {
	Samples       int
	FinalPosition float64
	FinalVelocity float64
	MaxPosition   float64
	MaxVelocity   float64
	// WorstEpoch is where the position error peaked.
	WorstEpoch time.Time
}

// Compare evaluates every sample of res against ref.
func Compare(res *propagator.Result, ref Reference) (Comparison, error) {
	var cmp Comparison
	if res == nil || res.Len() == 0 {
		return cmp, fmt.Errorf("empty result")
	}
	for _, s := range res.Samples {
		want, err := ref(s.Epoch)
		if err != nil {
			return cmp, fmt.Errorf("reference at %s: %w", s.Epoch.Format(time.RFC3339Nano), err)
		}
		dp, dv := PosVelError(s.State, want)
		if dp > cmp.MaxPosition {
			cmp.MaxPosition = dp
			cmp.WorstEpoch = s.Epoch
		}
		cmp.MaxVelocity = math.Max(cmp.MaxVelocity, dv)
		cmp.FinalPosition, cmp.FinalVelocity = dp, dv
		cmp.Samples++
	}
	return cmp, nil
}

// PosVelError is the Euclidean distance between the position blocks and the
// velocity blocks of two Cartesian states.
func PosVelError(a, b dynamo.State) (float64, float64) {
	var p, v float64
	for i := 0; i < 3; i++ {
		dp := a[i] - b[i]
		dv := a[3+i] - b[3+i]
		p += dp * dp
		v += dv * dv
	}
	return math.Sqrt(p), math.Sqrt(v)
}
