package physio

import (
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
)

// Hemo holds the systemic circulation quantities for one instant.
type Hemo struct {
	CO      float64 // L/min
	MAP     float64 // mmHg
	SAR     float64 // systemic arterial resistance
	TPR     float64 // SAR + venous resistance
	MFP     float64 // mean filling pressure
	Autoreg float64
}

// computeHemo derives cardiac output and MAP from blood volume, the
// delayed-CO autoregulation signal, angiotensin II, and sympathetic tone.
// Autoregulation acts on the smoothed CO so instantaneous excursions do
// not whipsaw vascular tone.
func (m *Model) computeHemo(x dynamo.State, tone Tone) Hemo {
	p := m.p

	autoreg := math.Max(p.AutoregFloor,
		1.0+p.TissueAutoregScale*p.AutoregGain*(x[IxCODelayed]-p.CONominal))

	at1 := 1.0 + p.AT1SVRSlope*(x[IxAngII]-p.AngIINominal)
	sympEff := 1.0 + p.SympSVRGain*(tone.Sympathetic-p.SympToneNominal)

	sar := m.cal.sarNominal * autoreg * at1 * sympEff
	if sar < minResistance {
		sar = minResistance
	}

	rvr := (8.0*p.VenousResistance + sar) / 31.0
	mfp := m.cal.mfpNominal + (x[IxBloodVolume]-p.BloodVolumeNominal)/p.VenousCompliance

	co := p.PumpScale * mfp / rvr
	if co < minFlow {
		co = minFlow
	}

	return Hemo{
		CO:      co,
		MAP:     p.VenousPressure + co*sar,
		SAR:     sar,
		TPR:     sar + p.VenousResistance,
		MFP:     mfp,
		Autoreg: autoreg,
	}
}

const (
	minResistance = 0.1
	minFlow       = 0.05
)
