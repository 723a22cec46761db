package params

import (
	"fmt"
	"sort"
)

// Disease overrides adjust the effective physiology while calibration
// stays on the healthy nominals, so a run starts off equilibrium and the
// trajectory shows the compensation transient.
var diseases = map[string]func(*Set){
	// Chronically raised regulated pressure target.
	"hypertension": func(s *Set) { s.MAPSetpointShift = 12.0 },
	// Reduced pump effectiveness: CO falls below nominal at the same
	// filling pressure.
	"heart-failure": func(s *Set) { s.PumpScale = 0.7 },
	// Loss of filtration surface: Kf halved.
	"renal-dysfunction": func(s *Set) { s.KfScale = 0.5 },
}

// ApplyDisease applies a named disease-state override in place.
func (s *Set) ApplyDisease(name string) error {
	fn, ok := diseases[name]
	if !ok {
		return fmt.Errorf("unknown disease state: %s (available: %v)", name, DiseaseNames())
	}
	fn(s)
	return nil
}

func DiseaseNames() []string {
	names := make([]string, 0, len(diseases))
	for name := range diseases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
