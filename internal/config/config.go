// Package config defines the YAML run configuration and the built-in
// scenario presets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/params"
	"github.com/san-kum/renosim/internal/physio"
)

const (
	DefaultDt            = 0.2 // minutes
	DefaultDurationHours = 24.0
	DefaultTolerance     = 1e-6
	DefaultMaxDt         = 5.0
	DefaultMinDt         = 1e-6
	DefaultMaxRetries    = 8
)

// Config is one run: scenario naming, integration settings, initial-state
// perturbations, and optional parameter overrides. Times in the file are
// minutes except duration_hours.
type Config struct {
	Scenario      string        `yaml:"scenario"`
	Disease       string        `yaml:"disease"`
	Integrator    string        `yaml:"integrator"`
	Dt            float64       `yaml:"dt"`
	DurationHours float64       `yaml:"duration_hours"`
	Adaptive      bool          `yaml:"adaptive"`
	Tolerance     float64       `yaml:"tolerance"`
	MaxDt         float64       `yaml:"max_dt"`
	MinDt         float64       `yaml:"min_dt"`
	Perturb       PerturbConfig `yaml:"perturb"`
	Params        *params.Set   `yaml:"params"`
}

// PerturbConfig displaces the initial state from the healthy equilibrium.
// Zero values mean "leave at nominal".
type PerturbConfig struct {
	BloodVolumeScale float64 `yaml:"blood_volume_scale"` // 1.05 = +5% volume
	WaterBolusML     float64 `yaml:"water_bolus_ml"`     // isotonic-free water, dilutes solutes
	NaBolusMEq       float64 `yaml:"na_bolus_meq"`       // raises plasma Na
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:      "nominal",
		Integrator:    "rk4",
		Dt:            DefaultDt,
		DurationHours: DefaultDurationHours,
		Tolerance:     DefaultTolerance,
		MaxDt:         DefaultMaxDt,
		MinDt:         DefaultMinDt,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// Pre-seeding lets a file override individual parameters without
	// zeroing the rest of the set.
	cfg.Params = params.Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildModel assembles the parameter set (defaults, file overrides,
// disease overrides, in that order) and constructs the model.
func (c *Config) BuildModel() (*physio.Model, error) {
	p := c.Params
	if p == nil {
		p = params.Default()
	} else {
		p = p.Clone()
	}
	if c.Disease != "" {
		if err := p.ApplyDisease(c.Disease); err != nil {
			return nil, err
		}
	}
	return physio.New(p)
}

// InitialState is the model's healthy equilibrium displaced by the
// configured perturbation.
func (c *Config) InitialState(m *physio.Model) dynamo.State {
	x := m.NominalState()

	if s := c.Perturb.BloodVolumeScale; s != 0 && s != 1 {
		x[physio.IxBloodVolume] *= s
	}
	if bolus := c.Perturb.WaterBolusML; bolus != 0 {
		bv := x[physio.IxBloodVolume]
		bvNew := bv + bolus/1000.0
		if bvNew > 0 {
			// Free water dilutes every plasma solute.
			f := bv / bvNew
			x[physio.IxPlasmaNa] *= f
			x[physio.IxPlasmaK] *= f
			x[physio.IxPlasmaOsm] *= f
			x[physio.IxBloodVolume] = bvNew
		}
	}
	if bolus := c.Perturb.NaBolusMEq; bolus != 0 {
		bv := x[physio.IxBloodVolume]
		x[physio.IxPlasmaNa] += bolus / bv
		x[physio.IxPlasmaOsm] += 2.0 * bolus / bv
	}
	return x
}

// SimConfig translates the run settings into driver units (minutes).
func (c *Config) SimConfig() dynamo.Config {
	sc := dynamo.DefaultConfig()
	if c.Dt > 0 {
		sc.Dt = c.Dt
	}
	if c.DurationHours > 0 {
		sc.Duration = c.DurationHours * 60.0
	}
	if c.Tolerance > 0 {
		sc.Tolerance = c.Tolerance
	}
	if c.MaxDt > 0 {
		sc.MaxDt = c.MaxDt
	}
	if c.MinDt > 0 {
		sc.MinDt = c.MinDt
	}
	sc.Adaptive = c.Adaptive
	sc.MaxRetries = DefaultMaxRetries
	return sc
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.DurationHours <= 0 {
		return fmt.Errorf("duration_hours must be positive, got %g", c.DurationHours)
	}
	if c.Perturb.BloodVolumeScale < 0 {
		return fmt.Errorf("blood_volume_scale must be non-negative, got %g", c.Perturb.BloodVolumeScale)
	}
	return nil
}
