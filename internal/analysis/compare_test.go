package analysis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/propagator"
)

var (
	epoch = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	leo   = dynamo.State{-2436.45, -2436.45, 6891.037, 5.088611, -5.088611, 0.0}
)

func propagate(t *testing.T, opts propagator.Options, x0 dynamo.State, d time.Duration) *propagator.Result {
	t.Helper()
	p, err := propagator.New(forces.NewTwoBody(forces.Earth.GM), opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.For(context.Background(), epoch, x0, d)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestCompareAgainstKepler(t *testing.T) {
	tests := []struct {
		name   string
		opts   propagator.Options
		maxPos float64
	}{
		{"dormand78", propagator.DefaultOptions(), 1e-6},
		{"rk4 10s", propagator.FixedStepOptions(10 * time.Second), 1e-4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := propagate(t, tt.opts, leo, 3*time.Hour)
			cmp, err := Compare(res, KeplerReference(forces.Earth.GM, epoch, leo))
			if err != nil {
				t.Fatal(err)
			}
			if cmp.Samples != res.Len() {
				t.Errorf("compared %d of %d samples", cmp.Samples, res.Len())
			}
			if cmp.MaxPosition > tt.maxPos {
				t.Errorf("max position error %g km", cmp.MaxPosition)
			}
			if cmp.FinalPosition > cmp.MaxPosition || cmp.FinalVelocity > cmp.MaxVelocity {
				t.Errorf("final error exceeds maximum: %+v", cmp)
			}
		})
	}
}

func TestCompareEmpty(t *testing.T) {
	if _, err := Compare(&propagator.Result{}, KeplerReference(forces.Earth.GM, epoch, leo)); err == nil {
		t.Error("expected error for empty result")
	}
}

func TestDivergenceRate(t *testing.T) {
	opts := propagator.FixedStepOptions(30 * time.Second)
	a := propagate(t, opts, leo, 6*time.Hour)

	shifted := leo.Clone()
	shifted[0] += 0.01
	b := propagate(t, opts, shifted, 6*time.Hour)

	rate, err := DivergenceRate(a, b)
	if err != nil {
		t.Fatal(err)
	}
	// A radial offset changes the period, so the separation drifts apart
	// along track: positive, far below one e-fold per orbit.
	if rate <= 0 || rate > 1e-3 {
		t.Errorf("divergence rate = %g /s", rate)
	}

	if _, err := DivergenceRate(a, a); err == nil {
		t.Error("expected error for identical starts")
	}
}

func TestDivergenceRateExponential(t *testing.T) {
	const lambda = 2e-4
	var a, b propagator.Result
	for i := 0; i <= 60; i++ {
		at := epoch.Add(time.Duration(i) * time.Minute)
		d := 1e-3 * math.Exp(lambda*60*float64(i))
		a.Samples = append(a.Samples, propagator.Sample{Epoch: at, State: dynamo.State{7000, 0, 0, 0, 7.5, 0}})
		b.Samples = append(b.Samples, propagator.Sample{Epoch: at, State: dynamo.State{7000 + d, 0, 0, 0, 7.5, 0}})
	}

	rate, err := DivergenceRate(&a, &b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rate-lambda) > 1e-6*lambda {
		t.Errorf("rate = %g, want %g", rate, lambda)
	}

	b.Samples = b.Samples[:10]
	if _, err := DivergenceRate(&a, &b); err == nil {
		t.Error("expected error for mismatched samples")
	}
}

func TestSeries(t *testing.T) {
	res := propagate(t, propagator.FixedStepOptions(time.Minute), leo, 10*time.Minute)
	ts, xs := Series(res, 0)
	if len(ts) != res.Len() || len(xs) != res.Len() {
		t.Fatalf("series lengths %d, %d, want %d", len(ts), len(xs), res.Len())
	}
	if ts[0] != 0 || ts[len(ts)-1] != 600 {
		t.Errorf("times span %g..%g", ts[0], ts[len(ts)-1])
	}
	if xs[0] != leo[0] {
		t.Errorf("first value = %g", xs[0])
	}
	r := Radius(res)
	if r[0] < 7000 || r[0] > 8000 {
		t.Errorf("radius = %g", r[0])
	}
}
