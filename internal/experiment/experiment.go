package experiment

import (
	"context"
	"fmt"

	"github.com/go-kit/log"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/metrics"
	"github.com/san-kum/astroprop/internal/montecarlo"
	"github.com/san-kum/astroprop/internal/propagator"
)

// Experiment runs one scenario: a single propagation or a Monte Carlo batch
// around it.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   log.Logger
	prop     *propagator.Propagator
}

type Outcome struct {
	Result  *propagator.Result
	Metrics map[string]float64
}

func New(cfg *config.Config, registry *Registry, logger log.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Experiment{cfg: cfg, registry: registry, logger: logger}
}

// Setup validates the scenario and builds the propagator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	sys, err := e.registry.Dynamics(e.cfg)
	if err != nil {
		return err
	}
	opts, err := e.cfg.Options()
	if err != nil {
		return err
	}
	opts.Logger = log.With(e.logger, "scenario", e.cfg.Name)
	e.prop, err = propagator.New(sys, opts)
	return err
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Propagator() *propagator.Propagator { return e.prop }

// Forces names the contributors of the assembled dynamics in evaluation
// order. It is empty before Setup and for the two-body STM system.
func (e *Experiment) Forces() []string {
	if e.prop == nil {
		return nil
	}
	c, ok := e.prop.System().(*dynamo.Composite)
	if !ok {
		return nil
	}
	list := c.Contributors()
	names := make([]string, len(list))
	for i, contrib := range list {
		names[i] = contrib.Name()
	}
	return names
}

// Run propagates the nominal scenario and reports the default metrics, plus
// any extra observers.
func (e *Experiment) Run(ctx context.Context, extra ...dynamo.Observer) (*Outcome, error) {
	if e.prop == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	body, err := e.cfg.CentralBody()
	if err != nil {
		return nil, err
	}
	ms := e.registry.DefaultMetrics(body)
	x0 := e.cfg.InitialState()
	metrics.Seed(ms, e.cfg.Epoch, x0)

	p := e.prop.WithObservers(append(metrics.Observers(ms), extra...)...)
	res, err := p.Propagate(ctx, e.cfg.Epoch, x0, e.cfg.Target())
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res, Metrics: metrics.Collect(ms)}, nil
}

// RunMonteCarlo disperses the nominal state with the scenario's Monte Carlo
// block. onRun may be nil.
func (e *Experiment) RunMonteCarlo(ctx context.Context, onRun func(montecarlo.Run)) (*montecarlo.Batch, error) {
	if e.prop == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	mc := e.cfg.MonteCarlo
	coord, err := montecarlo.New(e.prop, montecarlo.Options{
		Runs:     mc.Runs,
		Seed:     mc.Seed,
		Workers:  mc.Workers,
		FailFast: mc.FailFast,
		OnRun:    onRun,
		Logger:   e.logger,
	})
	if err != nil {
		return nil, err
	}
	disp := montecarlo.NewDispersion(mc.PositionSigma, mc.VelocitySigma)
	return coord.Run(ctx, e.cfg.Epoch, e.cfg.InitialState(), e.cfg.Target(), disp)
}
