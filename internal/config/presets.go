package config

import "sort"

// Presets are the built-in scenarios. Each starts from the healthy
// equilibrium; perturbations and disease overrides generate the
// transient of interest.
var Presets = map[string]*Config{
	"nominal": {
		Scenario: "nominal", Integrator: "rk4",
		Dt: 0.2, DurationHours: 24,
	},
	"volume-expansion": {
		Scenario: "volume-expansion", Integrator: "rk4",
		Dt: 0.2, DurationHours: 48,
		Perturb: PerturbConfig{BloodVolumeScale: 1.05},
	},
	"hemorrhage": {
		Scenario: "hemorrhage", Integrator: "rk4",
		Dt: 0.1, DurationHours: 24,
		Perturb: PerturbConfig{BloodVolumeScale: 0.85},
	},
	"water-load": {
		Scenario: "water-load", Integrator: "rk4",
		Dt: 0.2, DurationHours: 12,
		Perturb: PerturbConfig{WaterBolusML: 1000},
	},
	"salt-load": {
		Scenario: "salt-load", Integrator: "rk4",
		Dt: 0.2, DurationHours: 24,
		Perturb: PerturbConfig{NaBolusMEq: 100},
	},
	"hypertension": {
		Scenario: "hypertension", Disease: "hypertension", Integrator: "rk4",
		Dt: 0.2, DurationHours: 72,
	},
	"heart-failure": {
		Scenario: "heart-failure", Disease: "heart-failure", Integrator: "rk4",
		Dt: 0.2, DurationHours: 72,
	},
	"renal-dysfunction": {
		Scenario: "renal-dysfunction", Disease: "renal-dysfunction", Integrator: "rk4",
		Dt: 0.2, DurationHours: 72,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxDt == 0 {
		c.MaxDt = DefaultMaxDt
	}
	if c.MinDt == 0 {
		c.MinDt = DefaultMinDt
	}
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
