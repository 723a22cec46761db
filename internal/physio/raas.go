package physio

import (
	"github.com/san-kum/renosim/internal/dynamo"
)

// RAAS holds the hormone production targets each level relaxes toward.
// The cascade timing comes from the strictly ordered time constants
// (tau_renin < tau_angi < tau_angii < tau_aldosterone): renin responds
// within hours while aldosterone peaks 8-10 hours later.
type RAAS struct {
	ReninTarget float64
	AngITarget  float64
	AngIITarget float64
	AldoTarget  float64
}

// computeRAAS derives the cascade targets. Renin release is stimulated
// multiplicatively by low perfusion pressure, low macula-densa sodium
// delivery, and renal sympathetic activity; angiotensin I consumes renin
// activity against the angiotensinogen pool; ACE converts I to II;
// aldosterone responds to angiotensin II and plasma potassium.
func (m *Model) computeRAAS(x dynamo.State, tone Tone, circ float64) RAAS {
	p := m.p
	set := p.EffectiveMAPSetpoint()

	pressureEff := 1.0 + p.ReninPressureGain*(set-x[IxMAPFiltered])/set
	if pressureEff < 0 {
		pressureEff = 0
	}
	mdEff := 1.0 + p.ReninMDGain*(1.0-x[IxMaculaDensaNa]/m.cal.mdSetpoint)
	if mdEff < 0 {
		mdEff = 0
	}
	sympEff := 1.0 + p.SympReninGain*(tone.RSNA-p.RSNANominal)

	renin := p.ReninNominal * pressureEff * mdEff * sympEff * circ
	renin = clamp(renin, p.ReninMin, p.ReninMax)

	angI := p.AngINominal * (x[IxRenin] / p.ReninNominal) * p.AngiotensinogenAv
	angII := p.AngIINominal * (x[IxAngI] / p.AngINominal) * p.ACEActivity

	aldo := p.AldoNominal * (1.0 +
		p.AldoAngIIGain*(x[IxAngII]-p.AngIINominal) +
		p.AldoKGain*(x[IxPlasmaK]-p.KNominal))
	aldo = clamp(aldo, p.AldoMin, p.AldoMax)

	return RAAS{
		ReninTarget: renin,
		AngITarget:  angI,
		AngIITarget: angII,
		AldoTarget:  aldo,
	}
}
