package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/renosim/internal/physio"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := DefaultConfig()
	cfg.Scenario = "hemorrhage"
	cfg.Disease = "heart-failure"
	cfg.Dt = 0.1
	cfg.DurationHours = 6
	cfg.Adaptive = true
	cfg.Perturb.BloodVolumeScale = 0.85

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Scenario != cfg.Scenario || loaded.Disease != cfg.Disease {
		t.Errorf("naming lost: %+v", loaded)
	}
	if loaded.Dt != cfg.Dt || loaded.DurationHours != cfg.DurationHours {
		t.Errorf("timing lost: dt=%g hours=%g", loaded.Dt, loaded.DurationHours)
	}
	if !loaded.Adaptive {
		t.Error("adaptive flag lost")
	}
	if loaded.Perturb.BloodVolumeScale != 0.85 {
		t.Errorf("perturbation lost: %g", loaded.Perturb.BloodVolumeScale)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("scenario: water-load\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("dt = %g, want default %g", cfg.Dt, DefaultDt)
	}
	if cfg.Integrator != "rk4" {
		t.Errorf("integrator = %q, want rk4", cfg.Integrator)
	}
}

func TestPresetsComplete(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("no presets")
	}
	for _, name := range names {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
		if _, err := cfg.BuildModel(); err != nil {
			t.Errorf("preset %s model: %v", name, err)
		}
	}
	if GetPreset("no-such-scenario") != nil {
		t.Error("unknown preset should return nil")
	}
}

func TestPresetCopyIsDetached(t *testing.T) {
	a := GetPreset("nominal")
	a.Dt = 99
	b := GetPreset("nominal")
	if b.Dt == 99 {
		t.Error("preset mutation leaked into the shared table")
	}
}

func TestInitialStatePerturbations(t *testing.T) {
	cfg := DefaultConfig()
	m, err := cfg.BuildModel()
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	nominal := m.NominalState()

	t.Run("volume scale", func(t *testing.T) {
		c := DefaultConfig()
		c.Perturb.BloodVolumeScale = 1.05
		x := c.InitialState(m)
		want := 1.05 * nominal[physio.IxBloodVolume]
		if math.Abs(x[physio.IxBloodVolume]-want) > 1e-12 {
			t.Errorf("blood volume = %g, want %g", x[physio.IxBloodVolume], want)
		}
	})

	t.Run("water bolus dilutes", func(t *testing.T) {
		c := DefaultConfig()
		c.Perturb.WaterBolusML = 1000
		x := c.InitialState(m)
		if x[physio.IxBloodVolume] <= nominal[physio.IxBloodVolume] {
			t.Error("bolus did not expand volume")
		}
		if x[physio.IxPlasmaNa] >= nominal[physio.IxPlasmaNa] {
			t.Error("bolus did not dilute sodium")
		}
		if x[physio.IxPlasmaOsm] >= nominal[physio.IxPlasmaOsm] {
			t.Error("bolus did not dilute osmolarity")
		}
	})

	t.Run("sodium bolus concentrates", func(t *testing.T) {
		c := DefaultConfig()
		c.Perturb.NaBolusMEq = 100
		x := c.InitialState(m)
		if x[physio.IxPlasmaNa] <= nominal[physio.IxPlasmaNa] {
			t.Error("bolus did not raise sodium")
		}
		if x[physio.IxBloodVolume] != nominal[physio.IxBloodVolume] {
			t.Error("sodium bolus must not change volume")
		}
	})
}

func TestBuildModelRejectsUnknownDisease(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Disease = "dropsy"
	if _, err := cfg.BuildModel(); err == nil {
		t.Error("expected error for unknown disease")
	}
}
