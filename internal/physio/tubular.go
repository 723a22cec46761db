package physio

import (
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
)

// Tubular holds the segment-by-segment handling of the filtered load and
// the resulting excretion rates.
type Tubular struct {
	ProxNaReabs      float64 // mEq/min
	LoopNaReabs      float64
	DistalNaReabs    float64
	CDNaReabs        float64
	DistalNaDelivery float64 // loop outflow, the macula-densa signal source
	NaExcretion      float64 // mEq/min
	UrineFlow        float64 // ml/min
	KExcretion       float64 // mEq/min
	Natriuresis      float64 // pressure-natriuresis multiplier
}

// computeTubular walks the nephron in series: proximal tubule, loop of
// Henle, distal tubule, collecting duct. Each segment removes a fraction
// of its inbound load; the fractions are modulated by angiotensin II,
// aldosterone, ADH, and sympathetic tone, and each modulated fraction is
// capped so a segment can never reabsorb more than arrives. Pressure
// natriuresis scales the final excretion, capped at the filtered load so
// the kidney cannot excrete what it never filtered.
func (m *Model) computeTubular(x dynamo.State, renal Renal, tone Tone) Tubular {
	p := m.p

	naIn := renal.FilteredNa
	waterIn := renal.FilteredWater

	// Proximal: glomerulotubular balance, iso-osmotic so water follows Na.
	proxFrac := p.ProxNaFrac *
		(1.0 + p.ProxAngIIGain*(x[IxAngII]-p.AngIINominal)) *
		(1.0 + p.SympNaGain*(tone.RSNA-p.RSNANominal))
	proxFrac = clamp(proxFrac, 0, p.NaFracMax)
	proxNa := naIn * proxFrac
	proxWater := waterIn * proxFrac
	naIn -= proxNa
	waterIn -= proxWater

	// Loop of Henle: fixed Na fraction, ADH-sensitive water fraction.
	loopNa := naIn * p.LoopNaFrac
	loopWaterFrac := p.LoopWaterFrac * (1.0 + p.ADHLoopGain*(x[IxADH]-p.ADHNominal))
	loopWaterFrac = clamp(loopWaterFrac, 0, p.LoopWaterFracMax)
	loopWater := waterIn * loopWaterFrac
	naIn -= loopNa
	waterIn -= loopWater

	distalDelivery := naIn

	// Distal tubule: aldosterone and sympathetic Na reabsorption.
	aldoEff := 1.0 + p.AldoNaGain*(x[IxAldosterone]-p.AldoNominal)
	distalFrac := p.DistalNaFrac * aldoEff *
		(1.0 + p.SympNaGain*(tone.RSNA-p.RSNANominal))
	distalFrac = clamp(distalFrac, 0, p.NaFracMax)
	distalNa := naIn * distalFrac
	distalWater := waterIn * p.DistalWaterFrac
	naIn -= distalNa
	waterIn -= distalWater

	// Collecting duct: aldosterone for Na, ADH for water.
	cdFrac := clamp(p.CDNaFrac*aldoEff, 0, p.NaFracMax)
	cdNa := naIn * cdFrac
	cdWaterFrac := p.CDWaterFrac * (1.0 + p.ADHWaterGain*(x[IxADH]-p.ADHNominal))
	cdWaterFrac = clamp(cdWaterFrac, 0, p.CDWaterFracMax)
	cdWater := waterIn * cdWaterFrac
	naIn -= cdNa
	waterIn -= cdWater

	set := p.EffectiveMAPSetpoint()
	pn := math.Exp(p.NatriuresisGain * (x[IxMAPFiltered] - set) / set)

	naExcr := math.Min(naIn*pn, renal.FilteredNa)
	urine := math.Min(waterIn*pn, renal.FilteredWater)

	kExcr := m.cal.kIntake * (x[IxPlasmaK] / p.KNominal) *
		(1.0 + p.AldoKExcrGain*(x[IxAldosterone]-p.AldoNominal))
	if kExcr < 0 {
		kExcr = 0
	}

	return Tubular{
		ProxNaReabs:      proxNa,
		LoopNaReabs:      loopNa,
		DistalNaReabs:    distalNa,
		CDNaReabs:        cdNa,
		DistalNaDelivery: distalDelivery,
		NaExcretion:      naExcr,
		UrineFlow:        urine,
		KExcretion:       kExcr,
		Natriuresis:      pn,
	}
}
