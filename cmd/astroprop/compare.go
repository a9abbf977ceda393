package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/astroprop/internal/analysis"
	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/integrators"
	"github.com/san-kum/astroprop/internal/optim"
	"github.com/san-kum/astroprop/internal/propagator"
)

func compareCommand() *cobra.Command {
	var (
		sf      scenarioFlags
		methods []string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "compare integration methods on one scenario",
		Long: `Propagates the scenario once per method. Pure two-body scenarios are
checked against the analytic Kepler solution at every sample; otherwise
the final states are compared with the tightest rk89 solution.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sf.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return compareMethods(ctx, cfg, methods)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringSliceVar(&methods, "methods", []string{"dormand45", "verner56", "dormand78", "rk89"}, "methods to compare")
	return cmd
}

func twoBodyOnly(cfg *config.Config) bool {
	return !cfg.STM && len(cfg.Forces) == 1 && cfg.Forces[0] == "two_body"
}

func propagateWith(ctx context.Context, cfg *config.Config) (*propagator.Result, error) {
	exp, err := setup(cfg)
	if err != nil {
		return nil, err
	}
	out, err := exp.Run(ctx)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

func compareMethods(ctx context.Context, cfg *config.Config, methods []string) error {
	var reference func(res *propagator.Result) (pos, vel float64, err error)

	if twoBodyOnly(cfg) {
		body, err := cfg.CentralBody()
		if err != nil {
			return err
		}
		ref := analysis.KeplerReference(body.GM, cfg.Epoch, cfg.InitialState())
		reference = func(res *propagator.Result) (float64, float64, error) {
			cmp, err := analysis.Compare(res, ref)
			return cmp.MaxPosition, cmp.MaxVelocity, err
		}
		fmt.Println("reference: Kepler, worst error over all samples")
	} else {
		want, err := referenceFinal(ctx, cfg)
		if err != nil {
			return err
		}
		reference = func(res *propagator.Result) (float64, float64, error) {
			p, v := analysis.PosVelError(res.Final().State, want)
			return p, v, nil
		}
		fmt.Println("reference: rk89 at 1e-13, final state error")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tREJECTED\tEVALS\tTIME\tPOS ERR (km)\tVEL ERR (km/s)")
	for _, name := range methods {
		mcfg := cfg.Clone()
		mcfg.Integrator.Method = name
		res, err := propagateWith(ctx, mcfg)
		if err != nil {
			fmt.Fprintf(w, "%s\tfailed: %v\n", name, err)
			continue
		}
		dp, dv, err := reference(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%.3e\t%.3e\n",
			res.Method, res.Stats.Steps, res.Stats.Rejections, res.Stats.Evaluations,
			res.Elapsed.Round(time.Microsecond), dp, dv)
	}
	return w.Flush()
}

func divergenceCommand() *cobra.Command {
	var (
		sf    scenarioFlags
		delta float64
		step  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "divergence",
		Short: "estimate how fast two nearby trajectories separate",
		Long: `Propagates the scenario and a copy displaced by --delta km along x with
fixed rk4 steps, then reports the mean exponential separation rate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sf.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			cfg.STM = false
			cfg.Integrator = config.IntegratorConfig{Method: integrators.RK4Fixed.String(), FixedStep: step}
			if cfg.SampleEvery == 0 {
				cfg.SampleEvery = 10 * step
			}
			exp, err := setup(cfg)
			if err != nil {
				return err
			}
			p := exp.Propagator()

			x0 := cfg.InitialState()
			x1 := x0.Clone()
			x1[0] += delta

			a, err := p.Propagate(ctx, cfg.Epoch, x0, cfg.Target())
			if err != nil {
				return err
			}
			b, err := p.Propagate(ctx, cfg.Epoch, x1, cfg.Target())
			if err != nil {
				return err
			}
			rate, err := analysis.DivergenceRate(a, b)
			if err != nil {
				return err
			}
			final, _ := analysis.PosVelError(a.Final().State, b.Final().State)
			fmt.Printf("initial separation: %g km\n", delta)
			fmt.Printf("final separation:   %.6g km\n", final)
			fmt.Printf("divergence rate:    %.6g 1/s\n", rate)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().Float64Var(&delta, "delta", 1e-3, "initial displacement (km)")
	cmd.Flags().DurationVar(&step, "step", 10*time.Second, "fixed step")
	return cmd
}

// referenceFinal is the best available final state for cfg: the Kepler
// solution for pure two-body scenarios, a tight rk89 run otherwise.
func referenceFinal(ctx context.Context, cfg *config.Config) (dynamo.State, error) {
	if twoBodyOnly(cfg) {
		body, err := cfg.CentralBody()
		if err != nil {
			return nil, err
		}
		return forces.Kepler(body.GM, cfg.InitialState(), cfg.Duration)
	}
	refCfg := cfg.Clone()
	refCfg.Integrator = config.IntegratorConfig{
		Method:  integrators.RK89.String(),
		MaxStep: cfg.Integrator.MaxStep,
		RelTol:  1e-13,
		AbsTol:  1e-13,
	}
	res, err := propagateWith(ctx, refCfg)
	if err != nil {
		return nil, fmt.Errorf("reference propagation: %w", err)
	}
	return res.Final().State, nil
}

func tuneCommand() *cobra.Command {
	var (
		sf         scenarioFlags
		maxError   float64
		tolerances []float64
		maxSteps   []time.Duration
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "find the cheapest step control meeting an accuracy bound",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sf.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			want, err := referenceFinal(ctx, cfg)
			if err != nil {
				return err
			}
			g := optim.NewGridSearch(
				[]string{optim.ParamTolerance, optim.ParamMaxStep},
				[][]float64{tolerances, optim.MaxSteps(maxSteps...)},
			)
			best, cost, trials, err := g.Search(ctx, optim.StepControl(cfg, want, maxError))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOLERANCE\tMAX STEP\tEVALS")
			for _, tr := range trials {
				score := fmt.Sprint(tr.Score)
				switch {
				case tr.Err != nil:
					score = "failed: " + tr.Err.Error()
				case math.IsInf(tr.Score, 1):
					score = "misses bound"
				}
				fmt.Fprintf(w, "%g\t%s\t%s\n", tr.Params[optim.ParamTolerance],
					dynamo.Seconds(tr.Params[optim.ParamMaxStep]), score)
			}
			w.Flush()
			if err != nil {
				return err
			}
			fmt.Printf("\nbest: tolerance %g, max step %s, %g evaluations\n",
				best[optim.ParamTolerance], dynamo.Seconds(best[optim.ParamMaxStep]), cost)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().Float64Var(&maxError, "max-error", 1e-3, "final position error bound (km)")
	defaultTols := []float64{1e-8, 1e-9, 1e-10, 1e-11, 1e-12}
	cmd.Flags().Float64SliceVar(&tolerances, "tolerances", defaultTols, "tolerances to try")
	// pflag prints float slices with %f, which rounds these to zero.
	cmd.Flags().Lookup("tolerances").DefValue = formatFloats(defaultTols)
	cmd.Flags().DurationSliceVar(&maxSteps, "max-steps", []time.Duration{5 * time.Minute, 15 * time.Minute, 45 * time.Minute}, "maximum steps to try")
	return cmd
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
