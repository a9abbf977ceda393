package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/astroprop/internal/config"
)

// scenarioFlags selects a scenario and overrides parts of it. Flags only
// override the scenario when set explicitly.
type scenarioFlags struct {
	file        string
	preset      string
	method      string
	duration    time.Duration
	tolerance   float64
	maxStep     time.Duration
	fixedStep   time.Duration
	sampleEvery time.Duration
	forces      []string
	stm         bool
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "scenario", "s", "", "scenario file (yaml)")
	fs.StringVarP(&f.preset, "preset", "p", "", "preset scenario (see 'presets')")
	fs.StringVarP(&f.method, "method", "m", "", "integration method (see 'methods')")
	fs.DurationVarP(&f.duration, "duration", "d", 0, "propagation span, negative for backward")
	fs.Float64Var(&f.tolerance, "tol", 0, "relative and absolute tolerance")
	fs.DurationVar(&f.maxStep, "max-step", 0, "largest adaptive step")
	fs.DurationVar(&f.fixedStep, "fixed-step", 0, "step of the fixed-step method")
	fs.DurationVar(&f.sampleEvery, "sample-every", 0, "sample cadence, zero records every step")
	fs.StringSliceVar(&f.forces, "forces", nil, "force models (see 'forces')")
	fs.BoolVar(&f.stm, "stm", false, "propagate the state transition matrix")
}

func (f *scenarioFlags) load(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case f.file != "" && f.preset != "":
		return nil, fmt.Errorf("--scenario and --preset are exclusive")
	case f.file != "":
		var err error
		if cfg, err = config.Load(f.file); err != nil {
			return nil, err
		}
	case f.preset != "":
		if cfg = config.GetPreset(f.preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	fs := cmd.Flags()
	if fs.Changed("method") {
		cfg.Integrator.Method = f.method
	}
	if fs.Changed("duration") {
		cfg.Duration = f.duration
	}
	if fs.Changed("tol") {
		cfg.Integrator.RelTol = f.tolerance
		cfg.Integrator.AbsTol = f.tolerance
	}
	if fs.Changed("max-step") {
		cfg.Integrator.MaxStep = f.maxStep
	}
	if fs.Changed("fixed-step") {
		cfg.Integrator.FixedStep = f.fixedStep
	}
	if fs.Changed("sample-every") {
		cfg.SampleEvery = f.sampleEvery
	}
	if fs.Changed("forces") {
		cfg.Forces = f.forces
	}
	if fs.Changed("stm") {
		cfg.STM = f.stm
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
