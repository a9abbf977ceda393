package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/integrators"
	"github.com/san-kum/astroprop/internal/propagator"
)

const (
	DefaultBody     = "earth"
	DefaultDuration = 24 * time.Hour
	DefaultCd       = 2.2
	DefaultAreaMass = 0.01
	DefaultRuns     = 100
)

// DefaultEpoch is J2000.
var DefaultEpoch = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Config is one propagation scenario as stored in YAML.
type Config struct {
	Name        string           `yaml:"name"`
	Body        string           `yaml:"body"`
	Epoch       time.Time        `yaml:"epoch"`
	Duration    time.Duration    `yaml:"duration"`
	State       []float64        `yaml:"state,flow"`
	Forces      []string         `yaml:"forces,flow"`
	STM         bool             `yaml:"stm,omitempty"`
	Drag        DragConfig       `yaml:"drag"`
	Integrator  IntegratorConfig `yaml:"integrator"`
	SampleEvery time.Duration    `yaml:"sample_every"`
	MonteCarlo  MonteCarloConfig `yaml:"monte_carlo"`
}

type DragConfig struct {
	Cd         float64 `yaml:"cd"`
	AreaToMass float64 `yaml:"area_to_mass"`
}

// IntegratorConfig mirrors propagator.Options. Zero values fall back to the
// propagator defaults.
type IntegratorConfig struct {
	Method      string        `yaml:"method"`
	FixedStep   time.Duration `yaml:"fixed_step,omitempty"`
	MinStep     time.Duration `yaml:"min_step,omitempty"`
	MaxStep     time.Duration `yaml:"max_step,omitempty"`
	InitialStep time.Duration `yaml:"initial_step,omitempty"`
	RelTol      float64       `yaml:"relative_tolerance,omitempty"`
	AbsTol      float64       `yaml:"absolute_tolerance,omitempty"`
	MaxAttempts int           `yaml:"max_attempts,omitempty"`
	Norm        string        `yaml:"norm,omitempty"`
}

// MonteCarloConfig disperses the initial state with independent Gaussian
// errors: PositionSigma in km on each position axis, VelocitySigma in km/s
// on each velocity axis.
type MonteCarloConfig struct {
	Runs          int     `yaml:"runs"`
	Seed          int64   `yaml:"seed"`
	Workers       int     `yaml:"workers,omitempty"`
	PositionSigma float64 `yaml:"position_sigma"`
	VelocitySigma float64 `yaml:"velocity_sigma"`
	FailFast      bool    `yaml:"fail_fast,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "leo",
		Body:     DefaultBody,
		Epoch:    DefaultEpoch,
		Duration: DefaultDuration,
		State:    []float64{-2436.45, -2436.45, 6891.037, 5.088611, -5.088611, 0.0},
		Forces:   []string{"two_body"},
		Drag:     DragConfig{Cd: DefaultCd, AreaToMass: DefaultAreaMass},
		Integrator: IntegratorConfig{
			Method: integrators.Dormand78.String(),
		},
		MonteCarlo: MonteCarloConfig{
			Runs:          DefaultRuns,
			PositionSigma: 0.1,
			VelocitySigma: 1e-4,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding scenario")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing scenario %s", path)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.State = append([]float64(nil), c.State...)
	cp.Forces = append([]string(nil), c.Forces...)
	return &cp
}

// Validate checks the fields the propagator cannot check itself. Errors are
// *dynamo.ConfigurationError.
func (c *Config) Validate() error {
	if _, ok := forces.BodyByName(c.Body); !ok {
		return dynamo.Configf("body", "%q is not a known body", c.Body)
	}
	if len(c.State) != 6 {
		return dynamo.Configf("state", "needs 6 Cartesian components, got %d", len(c.State))
	}
	if c.Duration == 0 {
		return dynamo.Configf("duration", "must not be zero")
	}
	if len(c.Forces) == 0 {
		return dynamo.Configf("forces", "must name at least one model")
	}
	if c.STM && (len(c.Forces) != 1 || c.Forces[0] != "two_body") {
		return dynamo.Configf("stm", "is only available for pure two-body dynamics")
	}
	if c.MonteCarlo.Runs < 0 || c.MonteCarlo.Workers < 0 {
		return dynamo.Configf("monte_carlo", "runs and workers must not be negative")
	}
	if c.MonteCarlo.PositionSigma < 0 || c.MonteCarlo.VelocitySigma < 0 {
		return dynamo.Configf("monte_carlo", "sigmas must not be negative")
	}
	_, err := c.Options()
	return err
}

// CentralBody resolves Body.
func (c *Config) CentralBody() (forces.Body, error) {
	b, ok := forces.BodyByName(c.Body)
	if !ok {
		return forces.Body{}, dynamo.Configf("body", "%q is not a known body", c.Body)
	}
	return b, nil
}

// InitialState returns the Cartesian state, augmented with an identity
// transition matrix when STM is set.
func (c *Config) InitialState() dynamo.State {
	x := dynamo.State(c.State).Clone()
	if c.STM {
		return forces.WithIdentitySTM(x)
	}
	return x
}

// Target is Epoch plus Duration.
func (c *Config) Target() time.Time { return c.Epoch.Add(c.Duration) }

// Options builds validated propagator options, keeping the propagator
// defaults for unset fields.
func (c *Config) Options() (propagator.Options, error) {
	opts := propagator.DefaultOptions()
	ic := c.Integrator

	if ic.Method != "" {
		m, err := integrators.ParseMethod(ic.Method)
		if err != nil {
			return opts, dynamo.Configf("method", "%v", err)
		}
		opts.Method = m
	}
	norm, err := integrators.ParseNorm(ic.Norm)
	if err != nil {
		return opts, dynamo.Configf("norm", "%v", err)
	}
	opts.Norm = norm

	if ic.FixedStep != 0 {
		opts.FixedStep = ic.FixedStep
	}
	if ic.MinStep != 0 {
		opts.MinStep = ic.MinStep
	}
	if ic.MaxStep != 0 {
		opts.MaxStep = ic.MaxStep
	}
	if ic.InitialStep != 0 {
		opts.InitialStep = ic.InitialStep
	} else {
		// The default first step follows the scenario's bounds.
		opts.InitialStep = min(max(opts.InitialStep, opts.MinStep), opts.MaxStep)
	}
	if ic.RelTol != 0 {
		opts.RelTol = ic.RelTol
	}
	if ic.AbsTol != 0 {
		opts.AbsTol = ic.AbsTol
	}
	if ic.MaxAttempts != 0 {
		opts.MaxAttempts = ic.MaxAttempts
	}
	opts.SampleEvery = c.SampleEvery

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
