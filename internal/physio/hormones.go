package physio

import (
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/params"
)

// circadianFactor is the diurnal forcing multiplier applied to GFR and
// the ADH baseline: a smooth sinusoid of simulated time-of-day, pure in
// t. Time is minutes; the period is 24 hours.
func circadianFactor(p *params.Set, t float64) float64 {
	hours := math.Mod(t/60.0, 24.0)
	phase := 2.0*math.Pi*hours/24.0 + p.CircadianPhase
	return 1.0 + p.CircadianAmp*math.Sin(phase)
}

// adhTarget computes the ADH release level from osmolarity and volume
// deviation, floored at zero. ADH relaxes toward this with its own time
// constant and feeds back into tubular water permeability within the
// same evaluation.
func (m *Model) adhTarget(x dynamo.State, circ float64) float64 {
	p := m.p
	osmEff := p.ADHOsmoGain * (x[IxPlasmaOsm] - p.OsmNominal) / p.OsmNominal
	volEff := p.ADHVolumeGain * (p.BloodVolumeNominal - x[IxBloodVolume]) / p.BloodVolumeNominal

	adh := p.ADHNominal * (1.0 + osmEff + volEff) * circ
	return clamp(adh, 0, p.ADHMax)
}
