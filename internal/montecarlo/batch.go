package montecarlo

import (
	"math"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/propagator"
	"gonum.org/v1/gonum/stat"
)

// Run is one dispersed propagation.
type Run struct {
	Index   int
	Seed    int64
	Initial dynamo.State
	Result  *propagator.Result
	Err     error
}

func (r Run) Succeeded() bool { return r.Err == nil && r.Result != nil }

// Batch holds the executed runs ordered by index. Runs never dispatched
// because of cancellation or a fail-fast stop are absent, so Len can be
// below Requested.
type Batch struct {
	Requested int
	Runs      []Run
}

func (b *Batch) Len() int { return len(b.Runs) }

func (b *Batch) Succeeded() []Run {
	var out []Run
	for _, r := range b.Runs {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

func (b *Batch) Failed() []Run {
	var out []Run
	for _, r := range b.Runs {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Summary describes the spread of the successful final states.
type Summary struct {
	Runs   int
	Failed int
	// Per component mean and sample standard deviation of final states.
	Mean   []float64
	StdDev []float64
	// Distance of each final position from the mean final position.
	RadiusMean float64
	RadiusStd  float64
	RadiusMax  float64
}

func (b *Batch) Summary() Summary {
	ok := b.Succeeded()
	s := Summary{Runs: len(ok), Failed: len(b.Runs) - len(ok)}
	if len(ok) == 0 {
		return s
	}

	dim := len(ok[0].Result.Final().State)
	s.Mean = make([]float64, dim)
	s.StdDev = make([]float64, dim)
	col := make([]float64, len(ok))
	for c := 0; c < dim; c++ {
		for i, r := range ok {
			col[i] = r.Result.Final().State[c]
		}
		if len(ok) > 1 {
			s.Mean[c], s.StdDev[c] = stat.MeanStdDev(col, nil)
		} else {
			s.Mean[c] = col[0]
		}
	}

	if dim < 3 {
		return s
	}
	radii := make([]float64, len(ok))
	for i, r := range ok {
		x := r.Result.Final().State
		dx, dy, dz := x[0]-s.Mean[0], x[1]-s.Mean[1], x[2]-s.Mean[2]
		radii[i] = math.Sqrt(dx*dx + dy*dy + dz*dz)
		s.RadiusMax = math.Max(s.RadiusMax, radii[i])
	}
	if len(radii) > 1 {
		s.RadiusMean, s.RadiusStd = stat.MeanStdDev(radii, nil)
	} else {
		s.RadiusMean = radii[0]
	}
	return s
}
