package physio

import (
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/params"
)

// Tone is the autonomic output for one evaluation instant.
type Tone struct {
	Sympathetic       float64 // current tone (state entry)
	SympatheticTarget float64 // baroreflex target the tone relaxes toward
	Parasympathetic   float64
	BaroFiring        float64 // normalized firing rate in [0, 2]
	RSNA              float64 // renal sympathetic nerve activity
	HeartRate         float64
	StrokeVolume      float64
}

// computeTone derives autonomic tone from the filtered MAP. Baroreceptor
// firing rises with pressure; sympathetic outflow is the mirror image,
// so a pressure rise withdraws sympathetic drive.
func computeTone(p *params.Set, x dynamo.State) Tone {
	set := p.EffectiveMAPSetpoint()
	firing := 2.0 / (1.0 + math.Exp(-p.BaroSlope*(x[IxMAPFiltered]-set)/set))

	target := p.SympToneNominal * (2.0 - firing)
	target = clamp(target, p.ToneMin, p.ToneMax)

	symp := x[IxSympTone]
	parasymp := clamp(p.ParasympToneNominal*firing, p.ToneMin, p.ToneMax)
	rsna := p.RSNANominal * symp / p.SympToneNominal

	hr := p.HRNominal +
		(symp-p.SympToneNominal)*p.SympHRGain*p.HRNominal -
		(parasymp-p.ParasympToneNominal)*p.ParasympHRGain*p.HRNominal
	hr = clamp(hr, 40.0, 180.0)

	sv := p.StrokeVolNominal * (1.0 + (symp-p.SympToneNominal)*p.SympContractGain)

	return Tone{
		Sympathetic:       symp,
		SympatheticTarget: target,
		Parasympathetic:   parasymp,
		BaroFiring:        firing,
		RSNA:              rsna,
		HeartRate:         hr,
		StrokeVolume:      sv,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
