package config

import (
	"sort"
	"time"
)

// Presets are ready-made scenarios about the Earth, all starting at J2000.
var Presets = map[string]*Config{
	"leo": {
		Name: "leo", Duration: 24 * time.Hour,
		State:  []float64{-2436.45, -2436.45, 6891.037, 5.088611, -5.088611, 0.0},
		Forces: []string{"two_body"},
	},
	"iss": {
		Name: "iss", Duration: 6 * time.Hour,
		State: []float64{
			-3651.870970579, -2108.408687909, 5327.936304882,
			3.830549734, -6.634706761, 0,
		},
		Forces:      []string{"two_body", "j2", "drag"},
		SampleEvery: time.Minute,
	},
	"gto": {
		Name: "gto", Duration: 24 * time.Hour,
		State:       []float64{-6628.1363, 0, 0, 0, -9.083747211, -4.628400381},
		Forces:      []string{"two_body", "j2", "moon", "sun"},
		SampleEvery: 5 * time.Minute,
	},
	"molniya": {
		Name: "molniya", Duration: 48 * time.Hour,
		State: []float64{
			2189.698878504, -2189.698878504, -6183.970701981,
			7.081104796, 7.081104796, 0,
		},
		Forces:      []string{"two_body", "j2", "j3"},
		SampleEvery: 10 * time.Minute,
	},
	"geo": {
		Name: "geo", Duration: 24 * time.Hour,
		State: []float64{
			10912.89021694, 40727.460747043, 0,
			-2.969893583, 0.795780587, 0,
		},
		Forces:      []string{"two_body", "j2", "moon", "sun"},
		SampleEvery: 10 * time.Minute,
	},
}

// GetPreset returns a complete scenario built from the defaults and the
// named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = p.Name
	cfg.Duration = p.Duration
	cfg.State = append([]float64(nil), p.State...)
	cfg.Forces = append([]string(nil), p.Forces...)
	cfg.SampleEvery = p.SampleEvery
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
