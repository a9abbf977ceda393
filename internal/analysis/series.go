package analysis

import (
	"math"

	"github.com/san-kum/astroprop/internal/propagator"
)

// Series extracts one state component per sample, with elapsed seconds.
func Series(res *propagator.Result, component int) (t, v []float64) {
	t = make([]float64, 0, res.Len())
	v = make([]float64, 0, res.Len())
	start := res.Initial().Epoch
	for _, s := range res.Samples {
		if component >= len(s.State) {
			break
		}
		t = append(t, s.Epoch.Sub(start).Seconds())
		v = append(v, s.State[component])
	}
	return t, v
}

// Radius is the distance from the origin per sample.
func Radius(res *propagator.Result) []float64 {
	out := make([]float64, res.Len())
	for i, s := range res.Samples {
		out[i] = math.Sqrt(s.State[0]*s.State[0] + s.State[1]*s.State[1] + s.State[2]*s.State[2])
	}
	return out
}
