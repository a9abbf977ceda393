package propagator

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/integrators"
)

var (
	j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	leo   = dynamo.State{-2436.45, -2436.45, 6891.037, 5.088611, -5.088611, 0.0}
	day   = 24 * time.Hour
)

func twoBody() dynamo.System {
	return dynamo.NewComposite(6, forces.NewTwoBody(forces.Earth.GM))
}

func posVelErr(a, b dynamo.State) (float64, float64) {
	var p, v float64
	for i := 0; i < 3; i++ {
		p += (a[i] - b[i]) * (a[i] - b[i])
		v += (a[3+i] - b[3+i]) * (a[3+i] - b[3+i])
	}
	return math.Sqrt(p), math.Sqrt(v)
}

func mustPropagate(t *testing.T, sys dynamo.System, opts Options, x0 dynamo.State, d time.Duration) *Result {
	t.Helper()
	p, err := New(sys, opts)
	if err != nil {
		t.Fatalf("new propagator: %v", err)
	}
	res, err := p.For(context.Background(), j2000, x0, d)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	return res
}

func TestRK4FixedReference(t *testing.T) {
	// Independent RK4 integration, 10s steps over one day.
	want := dynamo.State{
		-5971.194189272762, 3945.5065462283105, 2864.6367663326328,
		0.04909708900240677, -4.185093405754786, 5.848940805394143,
	}
	res := mustPropagate(t, twoBody(), FixedStepOptions(10*time.Second), leo, day)

	if res.Stats.Steps != 8640 {
		t.Errorf("steps = %d, want 8640", res.Stats.Steps)
	}
	if res.Stats.Rejections != 0 {
		t.Errorf("fixed step rejected %d steps", res.Stats.Rejections)
	}
	dp, dv := posVelErr(res.Final().State, want)
	if dp > 3e-8 || dv > 4e-11 {
		t.Errorf("final state off by %g km, %g km/s", dp, dv)
	}
}

func TestExactArrival(t *testing.T) {
	target := j2000.Add(1000*time.Second + 123456789*time.Nanosecond)
	for _, m := range integrators.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Method = m
			opts.FixedStep = 7 * time.Second
			p, err := New(twoBody(), opts)
			if err != nil {
				t.Fatal(err)
			}
			res, err := p.Propagate(context.Background(), j2000, leo, target)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Final().Epoch.Equal(target) {
				t.Errorf("final epoch %v, want %v", res.Final().Epoch, target)
			}
			if !res.Initial().Epoch.Equal(j2000) {
				t.Errorf("initial epoch %v", res.Initial().Epoch)
			}
			want, _ := forces.Kepler(forces.Earth.GM, leo, target.Sub(j2000))
			if dp, _ := posVelErr(res.Final().State, want); dp > 1e-3 {
				t.Errorf("final position off by %g km", dp)
			}
		})
	}
}

func TestBackwardRoundTrip(t *testing.T) {
	for _, m := range integrators.Methods()[1:] {
		t.Run(m.String(), func(t *testing.T) {
			opts := AdaptiveOptions(m, 100*time.Millisecond, 30*time.Second, 1e-12)
			p, err := New(twoBody(), opts)
			if err != nil {
				t.Fatal(err)
			}
			fwd, err := p.For(context.Background(), j2000, leo, day)
			if err != nil {
				t.Fatal(err)
			}
			end := fwd.Final()
			back, err := p.Propagate(context.Background(), end.Epoch, end.State, j2000)
			if err != nil {
				t.Fatal(err)
			}
			if !back.Final().Epoch.Equal(j2000) {
				t.Errorf("backward run ended at %v", back.Final().Epoch)
			}
			dp, dv := posVelErr(back.Final().State, leo)
			if dp > 1e-5 || dv > 1e-8 {
				t.Errorf("round trip off by %g km, %g km/s", dp, dv)
			}
		})
	}
}

func TestAgreesWithKepler(t *testing.T) {
	want, err := forces.Kepler(forces.Earth.GM, leo, day)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range integrators.Methods()[1:] {
		opts := DefaultOptions()
		opts.Method = m
		res := mustPropagate(t, twoBody(), opts, leo, day)
		dp, dv := posVelErr(res.Final().State, want)
		if dp > 1e-5 || dv > 1e-8 {
			t.Errorf("%s: off Kepler by %g km, %g km/s", m, dp, dv)
		}
	}

	back, _ := forces.Kepler(forces.Earth.GM, leo, -day)
	res := mustPropagate(t, twoBody(), DefaultOptions(), leo, -day)
	if dp, _ := posVelErr(res.Final().State, back); dp > 1e-5 {
		t.Errorf("backward: off Kepler by %g km", dp)
	}
}

func TestToleranceMonotonic(t *testing.T) {
	want, _ := forces.Kepler(forces.Earth.GM, leo, day)
	tols := []float64{1e-6, 1e-8, 1e-10, 1e-12}

	for _, m := range integrators.Methods()[1:] {
		t.Run(m.String(), func(t *testing.T) {
			prev := math.Inf(1)
			prevSteps := 0
			for _, tol := range tols {
				opts := DefaultOptions()
				opts.Method = m
				opts.RelTol, opts.AbsTol = tol, tol
				res := mustPropagate(t, twoBody(), opts, leo, day)
				dp, _ := posVelErr(res.Final().State, want)
				if dp >= prev {
					t.Errorf("tol %g: error %g not below %g", tol, dp, prev)
				}
				if res.Stats.Steps < prevSteps {
					t.Errorf("tol %g: %d steps, fewer than %d", tol, res.Stats.Steps, prevSteps)
				}
				prev, prevSteps = dp, res.Stats.Steps
			}
		})
	}
}

// Halving the relative tolerance at a fixed absolute tolerance of 1e-12.
// Verner56 and Dormand78 improve at every halving. Dormand45 and RK89 each
// have one tolerance where the global error cancels, and the next halving
// climbs back out of that dip, so those only keep the looser bounds.
func TestToleranceHalving(t *testing.T) {
	want, _ := forces.Kepler(forces.Earth.GM, leo, day)
	strict := map[integrators.Method]bool{integrators.Verner56: true, integrators.Dormand78: true}

	for _, m := range integrators.Methods()[1:] {
		t.Run(m.String(), func(t *testing.T) {
			var errs []float64
			for tol := 1e-6; tol >= 1e-12; tol /= 2 {
				opts := DefaultOptions()
				opts.Method = m
				opts.RelTol, opts.AbsTol = tol, 1e-12
				res := mustPropagate(t, twoBody(), opts, leo, day)
				dp, _ := posVelErr(res.Final().State, want)
				errs = append(errs, dp)
			}

			worst := errs[0]
			for i := 1; i < len(errs); i++ {
				switch {
				case strict[m] && errs[i] >= errs[i-1]:
					t.Errorf("halving %d: error %g not below %g", i, errs[i], errs[i-1])
				case errs[i] > 25*errs[i-1]:
					t.Errorf("halving %d: error %g jumped from %g", i, errs[i], errs[i-1])
				case errs[i] > worst:
					t.Errorf("halving %d: error %g above every looser tolerance", i, errs[i])
				}
				worst = math.Max(worst, errs[i])
			}
			if last := errs[len(errs)-1]; last > 1e-4*errs[0] {
				t.Errorf("error %g at the tightest tolerance, %g at the loosest", last, errs[0])
			}
		})
	}
}

func TestDeterministicAcrossGoroutines(t *testing.T) {
	p, err := New(twoBody(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	ref, err := p.For(context.Background(), j2000, leo, 6*time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.For(context.Background(), j2000, leo, 6*time.Hour)
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if res == nil {
			t.Fatalf("run %d failed", i)
		}
		if res.Len() != ref.Len() || res.Stats != ref.Stats {
			t.Fatalf("run %d: %d samples %+v, want %d %+v", i, res.Len(), res.Stats, ref.Len(), ref.Stats)
		}
		for j := range res.Samples {
			a, b := res.At(j), ref.At(j)
			if !a.Epoch.Equal(b.Epoch) {
				t.Fatalf("run %d sample %d epoch differs", i, j)
			}
			for c := range a.State {
				if a.State[c] != b.State[c] {
					t.Fatalf("run %d sample %d component %d: %v != %v", i, j, c, a.State[c], b.State[c])
				}
			}
		}
	}
}

func TestSampling(t *testing.T) {
	t.Run("every step by default", func(t *testing.T) {
		res := mustPropagate(t, twoBody(), FixedStepOptions(10*time.Second), leo, 95*time.Second)
		// Nine full steps, one truncated step, plus the initial state.
		if res.Len() != 11 {
			t.Errorf("samples = %d, want 11", res.Len())
		}
		if res.Stats.Steps != 10 {
			t.Errorf("steps = %d, want 10", res.Stats.Steps)
		}
		if res.Stats.LastStep != 5 {
			t.Errorf("last step = %g, want 5", res.Stats.LastStep)
		}
	})

	t.Run("cadence", func(t *testing.T) {
		opts := FixedStepOptions(10 * time.Second)
		opts.SampleEvery = time.Minute
		res := mustPropagate(t, twoBody(), opts, leo, 10*time.Minute+5*time.Second)
		if res.Len() != 12 {
			t.Fatalf("samples = %d, want 12", res.Len())
		}
		for i := 1; i < 11; i++ {
			want := j2000.Add(time.Duration(i) * time.Minute)
			if !res.At(i).Epoch.Equal(want) {
				t.Errorf("sample %d at %v, want %v", i, res.At(i).Epoch, want)
			}
		}
	})

	t.Run("backward cadence", func(t *testing.T) {
		opts := FixedStepOptions(10 * time.Second)
		opts.SampleEvery = time.Minute
		res := mustPropagate(t, twoBody(), opts, leo, -3*time.Minute)
		if res.Len() != 4 {
			t.Fatalf("samples = %d, want 4", res.Len())
		}
		if !res.At(1).Epoch.Equal(j2000.Add(-time.Minute)) {
			t.Errorf("first sample at %v", res.At(1).Epoch)
		}
	})
}

func TestObservers(t *testing.T) {
	var seen []time.Time
	obs := dynamo.ObserverFunc(func(epoch time.Time, _ dynamo.State) {
		seen = append(seen, epoch)
	})
	opts := FixedStepOptions(30 * time.Second)
	opts.SampleEvery = time.Hour
	opts.Observers = []dynamo.Observer{obs}
	res := mustPropagate(t, twoBody(), opts, leo, 5*time.Minute)

	if len(seen) != res.Stats.Steps {
		t.Errorf("observer saw %d steps, stats report %d", len(seen), res.Stats.Steps)
	}
	if res.Len() != 2 {
		t.Errorf("samples = %d, want 2", res.Len())
	}
}

func TestZeroSpan(t *testing.T) {
	res := mustPropagate(t, twoBody(), DefaultOptions(), leo, 0)
	if res.Len() != 1 || res.Stats.Steps != 0 || res.Stats.Evaluations != 0 {
		t.Errorf("zero span result: %d samples, %+v", res.Len(), res.Stats)
	}
	res.Final().State[0] = 0
	if leo[0] == 0 {
		t.Error("result aliases the initial state")
	}
}

func TestSTMPropagation(t *testing.T) {
	sys := forces.NewTwoBodySTM(forces.Earth.GM)
	x0 := forces.WithIdentitySTM(leo)
	res := mustPropagate(t, sys, DefaultOptions(), x0, time.Hour)

	plain := mustPropagate(t, twoBody(), DefaultOptions(), leo, time.Hour)
	if dp, _ := posVelErr(res.Final().State, plain.Final().State); dp > 1e-6 {
		t.Errorf("augmented state drifted %g km from plain two-body", dp)
	}

	// A small position perturbation maps through Phi.
	const eps = 1e-3
	perturbed := leo.Clone()
	perturbed[0] += eps
	moved := mustPropagate(t, twoBody(), DefaultOptions(), perturbed, time.Hour)
	phi := forces.STM(res.Final().State)
	for i := 0; i < 6; i++ {
		predicted := plain.Final().State[i] + phi.At(i, 0)*eps
		if d := math.Abs(predicted - moved.Final().State[i]); d > 1e-6 {
			t.Errorf("component %d: linear prediction off by %g", i, d)
		}
	}
}
