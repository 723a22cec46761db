// Package metrics provides streaming trajectory summaries. Each metric
// observes state samples during the run and reduces them to one number
// recorded in the result.
package metrics

import (
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/physio"
)

// Stability reports the fraction of samples with every entry finite and
// below the magnitude threshold.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	for _, val := range x {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// PressureLoad is the time-averaged absolute deviation of the filtered
// MAP from a reference pressure, in mmHg. A well-regulated run stays
// within a few mmHg of its setpoint.
type PressureLoad struct {
	reference float64
	sum       float64
	samples   int
}

func NewPressureLoad(reference float64) *PressureLoad {
	return &PressureLoad{reference: reference}
}

func (p *PressureLoad) Name() string { return "pressure_load" }

func (p *PressureLoad) Observe(x dynamo.State, t float64) {
	p.samples++
	p.sum += math.Abs(x[physio.IxMAPFiltered] - p.reference)
}

func (p *PressureLoad) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *PressureLoad) Reset() {
	p.sum = 0
	p.samples = 0
}

// FluidBalance tracks the peak blood-volume excursion from a reference
// volume, as a fraction of that volume.
type FluidBalance struct {
	reference float64
	peak      float64
}

func NewFluidBalance(reference float64) *FluidBalance {
	return &FluidBalance{reference: reference}
}

func (f *FluidBalance) Name() string { return "fluid_balance" }

func (f *FluidBalance) Observe(x dynamo.State, t float64) {
	dev := math.Abs(x[physio.IxBloodVolume]-f.reference) / f.reference
	if dev > f.peak {
		f.peak = dev
	}
}

func (f *FluidBalance) Value() float64 { return f.peak }

func (f *FluidBalance) Reset() { f.peak = 0 }
