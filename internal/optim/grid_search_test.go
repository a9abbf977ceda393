package optim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/forces"
)

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{-1, 0, 1, 2}, {3, 4}})
	params, score, trials, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		return (p["a"]-1)*(p["a"]-1) + p["b"], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if params["a"] != 1 || params["b"] != 3 || score != 3 {
		t.Errorf("best = %v (%g)", params, score)
	}
	if len(trials) != 8 {
		t.Errorf("trials = %d, want 8", len(trials))
	}
}

func TestGridSearchSkipsDisqualified(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})
	params, _, trials, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		switch p["x"] {
		case 1:
			return 0, errors.New("diverged")
		case 2:
			return math.Inf(1), nil
		}
		return 5, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if params["x"] != 3 {
		t.Errorf("best = %v", params)
	}
	if trials[0].Err == nil {
		t.Error("failed trial not recorded")
	}

	_, _, _, err = g.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return math.Inf(1), nil
	})
	if err == nil {
		t.Error("expected error when nothing qualifies")
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"x"}, [][]float64{{1}})
	if _, _, _, err := g.Search(ctx, func(context.Context, map[string]float64) (float64, error) { return 0, nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestStepControl(t *testing.T) {
	cfg := config.GetPreset("leo")
	cfg.Duration = time.Hour
	want, err := forces.Kepler(forces.Earth.GM, cfg.InitialState(), cfg.Duration)
	if err != nil {
		t.Fatal(err)
	}

	objective := StepControl(cfg, want, 1e-3)
	g := NewGridSearch(
		[]string{ParamTolerance, ParamMaxStep},
		[][]float64{{1e-8, 1e-10, 1e-12}, MaxSteps(5*time.Minute, 45*time.Minute)},
	)
	best, cost, trials, err := g.Search(context.Background(), objective)
	if err != nil {
		t.Fatal(err)
	}

	var tightest float64
	for _, tr := range trials {
		if tr.Params[ParamTolerance] == 1e-12 && tr.Params[ParamMaxStep] == 300 {
			tightest = tr.Score
		}
	}
	if math.IsInf(tightest, 1) || tightest == 0 {
		t.Fatalf("tight setting failed the bound: %g", tightest)
	}
	if cost > tightest {
		t.Errorf("best cost %g above the tight setting %g", cost, tightest)
	}

	// The chosen setting meets the bound when run again.
	if again, err := objective(context.Background(), best); err != nil || again != cost {
		t.Errorf("rerun = %g, %v", again, err)
	}

	if _, err := objective(context.Background(), map[string]float64{"order": 5}); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestStepControlShortMaxStep(t *testing.T) {
	cfg := config.GetPreset("leo")
	cfg.Duration = time.Hour
	want, err := forces.Kepler(forces.Earth.GM, cfg.InitialState(), cfg.Duration)
	if err != nil {
		t.Fatal(err)
	}

	objective := StepControl(cfg, want, 1e-3)
	score, err := objective(context.Background(), map[string]float64{ParamTolerance: 1e-10, ParamMaxStep: 30})
	if err != nil {
		t.Fatalf("30s max step rejected: %v", err)
	}
	if math.IsInf(score, 1) || score < 120 {
		t.Errorf("score = %g, want at least one evaluation per 30s step", score)
	}
}
