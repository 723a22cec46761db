package physio

import (
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
)

// Renal holds the renal-vascular quantities for one instant.
type Renal struct {
	Raff          float64 // afferent arteriolar resistance
	Reff          float64 // efferent arteriolar resistance
	RBF           float64 // L/min
	Pglom         float64 // glomerular hydrostatic pressure
	GFR           float64 // ml/min (circadian-modulated)
	FiltFraction  float64
	TGF           float64 // tubuloglomerular feedback multiplier
	FilteredNa    float64 // mEq/min
	FilteredWater float64 // ml/min
}

// computeRenal derives arteriolar resistances, glomerular pressure, and
// GFR. Efferent resistance carries double angiotensin-II sensitivity;
// the TGF multiplier is the saturating autoregulatory nonlinearity that
// prevents runaway GFR excursions.
func (m *Model) computeRenal(x dynamo.State, hemo Hemo, tone Tone, circ float64) Renal {
	p := m.p
	angII := x[IxAngII]

	at1Aff := (1.0 - p.AT1PreaffScale/2.0) +
		p.AT1PreaffScale/(1.0+math.Exp(-(angII-p.AngIINominal)/p.AT1PreaffSlope))
	rsnaEff := 1.0 + p.SympRenalVasoGain*(tone.RSNA-p.RSNANominal)
	tgf := m.tgfMultiplier(x[IxMaculaDensaNa])

	raff := m.cal.raffNominal * at1Aff * tgf * rsnaEff
	if raff < minResistance {
		raff = minResistance
	}

	effAT1 := 1.0 + 2.0*p.AT1EfferentGain*(angII-p.AngIINominal)
	reff := m.cal.reffNominal * math.Max(0.1, effAT1)
	if reff < minResistance {
		reff = minResistance
	}

	rbf := (hemo.MAP - p.VenousPressure) / (raff + reff)
	if rbf < 0 {
		rbf = 0
	}
	pglom := hemo.MAP - rbf*raff

	// Filtration cannot reverse: GFR floors at zero when glomerular
	// pressure collapses below the opposing pressures.
	gfr := m.cal.kf * p.KfScale * (pglom - p.BowmanPressure - oncoticPressure(p.PlasmaProtein))
	if gfr < 0 {
		gfr = 0
	}
	gfr *= circ

	ff := 0.0
	if plasmaFlow := rbf * (1.0 - p.Hematocrit); plasmaFlow > 0 {
		ff = (gfr / 1000.0) / plasmaFlow
	}

	return Renal{
		Raff:          raff,
		Reff:          reff,
		RBF:           rbf,
		Pglom:         pglom,
		GFR:           gfr,
		FiltFraction:  ff,
		TGF:           tgf,
		FilteredNa:    gfr / 1000.0 * x[IxPlasmaNa],
		FilteredWater: gfr,
	}
}

// tgfMultiplier maps the macula-densa sodium signal to an afferent
// resistance multiplier: logistic around the setpoint, saturating at
// [TGFMin, TGFMax], equal to 1 at the setpoint.
func (m *Model) tgfMultiplier(md float64) float64 {
	p := m.p
	set := m.cal.mdSetpoint
	return p.TGFMin + (p.TGFMax-p.TGFMin)/(1.0+math.Exp(-p.TGFSlope*(md-set)/set))
}

// oncoticPressure is the Landis-Pappenheimer cubic in plasma protein
// concentration (g/dl). Empirically-fit coefficients.
func oncoticPressure(protein float64) float64 {
	return 2.1*protein + 0.16*protein*protein + 0.009*protein*protein*protein
}
