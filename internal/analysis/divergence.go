package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/astroprop/internal/propagator"
)

// DivergenceRate estimates the exponential separation rate (1/s) of two
// trajectories sampled at the same epochs as the least-squares slope of
//
//	ln(|δr(t)| / |δr(0)|)
//
// against elapsed time. Only position separation is used. Fitting every
// sample keeps the in-orbit oscillation of the separation from dominating
// the estimate.
func DivergenceRate(a, b *propagator.Result) (float64, error) {
	if a.Len() != b.Len() || a.Len() < 2 {
		return 0, fmt.Errorf("trajectories need matching samples, got %d and %d", a.Len(), b.Len())
	}
	d0, _ := PosVelError(a.At(0).State, b.At(0).State)
	if d0 == 0 {
		return 0, fmt.Errorf("trajectories start at the same position")
	}
	start := a.At(0).Epoch

	ts := make([]float64, 0, a.Len())
	logs := make([]float64, 0, a.Len())
	for i := 0; i < a.Len(); i++ {
		if !a.At(i).Epoch.Equal(b.At(i).Epoch) {
			return 0, fmt.Errorf("sample %d epochs differ", i)
		}
		d, _ := PosVelError(a.At(i).State, b.At(i).State)
		if d == 0 {
			continue
		}
		ts = append(ts, math.Abs(a.At(i).Epoch.Sub(start).Seconds()))
		logs = append(logs, math.Log(d/d0))
	}
	if len(ts) < 2 {
		return 0, nil
	}
	_, rate := stat.LinearRegression(ts, logs, nil, false)
	return rate, nil
}
