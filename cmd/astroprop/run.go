package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/experiment"
	"github.com/san-kum/astroprop/internal/montecarlo"
	"github.com/san-kum/astroprop/internal/propagator"
	"github.com/san-kum/astroprop/internal/storage"
	"github.com/san-kum/astroprop/internal/tui"
)

func runCommand() *cobra.Command {
	var (
		sf     scenarioFlags
		noSave bool
		saveTo string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a scenario and store the trajectory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sf.load(cmd)
			if err != nil {
				return err
			}
			if saveTo != "" {
				if err := config.Save(saveTo, cfg); err != nil {
					return err
				}
			}
			return runScenario(cmd.Context(), cfg, !noSave)
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&saveTo, "save-scenario", "", "write the resolved scenario to this file")
	return cmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

func setup(cfg *config.Config) (*experiment.Experiment, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, nil, logger)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp, nil
}

func baseMetadata(cfg *config.Config, method string) storage.RunMetadata {
	return storage.RunMetadata{
		Scenario: cfg.Name,
		Body:     cfg.Body,
		Forces:   cfg.Forces,
		Method:   method,
		Epoch:    cfg.Epoch,
		Target:   cfg.Target(),
	}
}

func runScenario(ctx context.Context, cfg *config.Config, save bool) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	exp, err := setup(cfg)
	if err != nil {
		return err
	}
	method := exp.Propagator().Options().Method.String()
	fmt.Printf("propagating %s with %s over %s...\n", cfg.Name, method, cfg.Duration)
	if names := exp.Forces(); len(names) > 0 {
		fmt.Printf("dynamics: %s\n", strings.Join(names, " + "))
	}

	out, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	printResult(out.Result)

	if len(out.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(out.Metrics))
		for name := range out.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6g\n", name, out.Metrics[name])
		}
	}

	if !save {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	meta := baseMetadata(cfg, method)
	meta.Metrics = out.Metrics
	id, err := st.Save(meta, out.Result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", id)
	return nil
}

func printResult(res *propagator.Result) {
	final := res.Final()
	fmt.Printf("completed in %v\n", res.Elapsed.Round(time.Microsecond))
	fmt.Printf("steps: %d  rejected: %d  evaluations: %d\n", res.Stats.Steps, res.Stats.Rejections, res.Stats.Evaluations)
	if res.Stats.Steps > 0 {
		fmt.Printf("step range: %.6g s to %.6g s\n", res.Stats.MinStep, res.Stats.MaxStep)
	}
	fmt.Printf("final epoch: %s\n", final.Epoch.Format(time.RFC3339Nano))
	fmt.Printf("final state: [% .12g]\n", []float64(final.State[:min(6, len(final.State))]))
}

func monteCarloCommand() *cobra.Command {
	var (
		sf       scenarioFlags
		runs     int
		seed     int64
		workers  int
		posSigma float64
		velSigma float64
		failFast bool
		plain    bool
		noSave   bool
	)
	cmd := &cobra.Command{
		Use:     "montecarlo",
		Aliases: []string{"mc"},
		Short:   "propagate dispersed copies of a scenario in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sf.load(cmd)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			mc := &cfg.MonteCarlo
			if fs.Changed("runs") {
				mc.Runs = runs
			}
			if fs.Changed("seed") {
				mc.Seed = seed
			}
			if fs.Changed("workers") {
				mc.Workers = workers
			}
			if fs.Changed("position-sigma") {
				mc.PositionSigma = posSigma
			}
			if fs.Changed("velocity-sigma") {
				mc.VelocitySigma = velSigma
			}
			if fs.Changed("fail-fast") {
				mc.FailFast = failFast
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runMonteCarlo(cmd.Context(), cfg, plain || !isTerminal(os.Stdout), !noSave)
		},
	}
	sf.register(cmd)
	fs := cmd.Flags()
	fs.IntVarP(&runs, "runs", "n", config.DefaultRuns, "number of dispersed runs")
	fs.Int64Var(&seed, "seed", 0, "base seed, run i uses seed+i")
	fs.IntVarP(&workers, "workers", "w", 0, "concurrent runs, zero means one per CPU")
	fs.Float64Var(&posSigma, "position-sigma", 0, "1-sigma position dispersion per axis (km)")
	fs.Float64Var(&velSigma, "velocity-sigma", 0, "1-sigma velocity dispersion per axis (km/s)")
	fs.BoolVar(&failFast, "fail-fast", false, "stop at the first failed run")
	fs.BoolVar(&plain, "plain", false, "print progress lines instead of the interactive view")
	fs.BoolVar(&noSave, "no-save", false, "do not store the batch")
	return cmd
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func runMonteCarlo(ctx context.Context, cfg *config.Config, plain, save bool) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	exp, err := setup(cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	mc := cfg.MonteCarlo
	title := fmt.Sprintf("%s: %d runs, seed %d", cfg.Name, mc.Runs, mc.Seed)

	var batch *montecarlo.Batch
	if plain {
		done := 0
		fmt.Println(title)
		batch, err = exp.RunMonteCarlo(ctx, func(r montecarlo.Run) {
			done++
			if r.Err != nil {
				level.Warn(logger).Log("msg", "run failed", "run", r.Index, "seed", r.Seed, "err", r.Err)
			}
			if done%max(1, mc.Runs/10) == 0 || done == mc.Runs {
				fmt.Printf("  %d/%d\n", done, mc.Runs)
			}
		})
	} else {
		batch, err = tui.Run(ctx, title, mc.Runs, exp.RunMonteCarlo)
	}
	if batch == nil {
		return err
	}

	sum := batch.Summary()
	fmt.Printf("\nexecuted %d of %d runs, %d failed\n", batch.Len(), batch.Requested, sum.Failed)
	if sum.Runs > 0 {
		fmt.Printf("final position spread: mean %.6g km  std %.6g km  max %.6g km\n", sum.RadiusMean, sum.RadiusStd, sum.RadiusMax)
	}
	for _, r := range batch.Failed() {
		fmt.Printf("  run %d (seed %d): %v\n", r.Index, r.Seed, r.Err)
	}

	if save && batch.Len() > 0 {
		st, serr := openStore()
		if serr != nil {
			return serr
		}
		meta := baseMetadata(cfg, exp.Propagator().Options().Method.String())
		meta.Seed = mc.Seed
		id, serr := st.SaveBatch(meta, batch)
		if serr != nil {
			return serr
		}
		fmt.Printf("batch id: %s\n", id)
	}
	return err
}
