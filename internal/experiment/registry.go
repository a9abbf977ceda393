package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/metrics"
)

// ForceFactory builds one contributor for a central body.
type ForceFactory func(body forces.Body, cfg *config.Config) (dynamo.Contributor, error)

type Registry struct {
	forces map[string]ForceFactory
}

func NewRegistry() *Registry {
	r := &Registry{forces: make(map[string]ForceFactory)}

	r.forces["two_body"] = func(b forces.Body, _ *config.Config) (dynamo.Contributor, error) {
		return forces.NewTwoBody(b.GM), nil
	}
	r.forces["j2"] = func(b forces.Body, _ *config.Config) (dynamo.Contributor, error) {
		if b.J2 == 0 {
			return nil, fmt.Errorf("%s has no J2 coefficient", b.Name)
		}
		return forces.NewZonal(b, false), nil
	}
	r.forces["j3"] = func(b forces.Body, _ *config.Config) (dynamo.Contributor, error) {
		if b.J3 == 0 {
			return nil, fmt.Errorf("%s has no J3 coefficient", b.Name)
		}
		return forces.NewZonal(b, true), nil
	}
	r.forces["moon"] = func(b forces.Body, _ *config.Config) (dynamo.Contributor, error) {
		if b.Name != forces.Earth.Name {
			return nil, fmt.Errorf("lunar ephemeris is geocentric, central body is %s", b.Name)
		}
		return forces.NewThirdBody(forces.Moon, forces.MoonCircular), nil
	}
	r.forces["sun"] = func(b forces.Body, _ *config.Config) (dynamo.Contributor, error) {
		if b.Name != forces.Earth.Name {
			return nil, fmt.Errorf("solar ephemeris is geocentric, central body is %s", b.Name)
		}
		return forces.NewThirdBody(forces.Sun, forces.SunCircular), nil
	}
	r.forces["drag"] = func(b forces.Body, cfg *config.Config) (dynamo.Contributor, error) {
		if b.Name != forces.Earth.Name {
			return nil, fmt.Errorf("no atmosphere model for %s", b.Name)
		}
		cd, am := config.DefaultCd, config.DefaultAreaMass
		if cfg != nil && cfg.Drag.Cd > 0 {
			cd = cfg.Drag.Cd
		}
		if cfg != nil && cfg.Drag.AreaToMass > 0 {
			am = cfg.Drag.AreaToMass
		}
		return forces.NewDrag(b, cd, am), nil
	}

	return r
}

// Register adds or replaces a force model.
func (r *Registry) Register(name string, f ForceFactory) {
	r.forces[name] = f
}

func (r *Registry) GetForce(name string, body forces.Body, cfg *config.Config) (dynamo.Contributor, error) {
	fn, ok := r.forces[name]
	if !ok {
		return nil, fmt.Errorf("unknown force model: %s", name)
	}
	return fn(body, cfg)
}

func (r *Registry) ListForces() []string {
	names := make([]string, 0, len(r.forces))
	for name := range r.forces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dynamics assembles the system described by cfg. Configuration problems
// come back as *dynamo.ConfigurationError.
func (r *Registry) Dynamics(cfg *config.Config) (dynamo.System, error) {
	body, err := cfg.CentralBody()
	if err != nil {
		return nil, err
	}
	if cfg.STM {
		return forces.NewTwoBodySTM(body.GM), nil
	}
	contributors := make([]dynamo.Contributor, 0, len(cfg.Forces))
	seen := make(map[string]bool, len(cfg.Forces))
	for _, name := range cfg.Forces {
		if seen[name] {
			return nil, dynamo.Configf("forces", "%s listed twice", name)
		}
		seen[name] = true
		c, err := r.GetForce(name, body, cfg)
		if err != nil {
			return nil, dynamo.Configf("forces", "%v", err)
		}
		contributors = append(contributors, c)
	}
	if !seen["two_body"] {
		return nil, dynamo.Configf("forces", "two_body is required for the kinematic terms")
	}
	return dynamo.NewComposite(6, contributors...), nil
}

// DefaultMetrics is a fresh metric set for one propagation about body.
func (r *Registry) DefaultMetrics(body forces.Body) []metrics.Metric {
	return []metrics.Metric{
		metrics.NewEnergyDrift(body.GM),
		metrics.NewMomentumDrift(),
		metrics.NewMinAltitude(body.Radius),
	}
}
