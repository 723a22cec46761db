package physio

import (
	"fmt"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/params"
)

// Model is the coupled cardiovascular-renal system. It implements
// dynamo.System, Reporter, and Bounded; the derivative evaluation is
// pure in (x, t), so any fixed-step or adaptive integrator can drive it.
type Model struct {
	p   *params.Set
	cal calibration
}

// calibration holds the constants derived at construction so the healthy
// nominal operating point is an exact equilibrium of the ODE. Disease
// overrides (KfScale, PumpScale, MAPSetpointShift) are deliberately
// excluded here: they act in the derivative, so a diseased run starts at
// the healthy equilibrium and the trajectory shows the transient.
type calibration struct {
	sarNominal  float64 // systemic arterial resistance at nominal CO and MAP
	mfpNominal  float64 // mean filling pressure at nominal blood volume
	raffNominal float64
	reffNominal float64
	kf          float64 // glomerular filtration coefficient, ml/min/mmHg
	mdSetpoint  float64 // nominal distal Na delivery, mEq/min
	osmRest     float64 // non-Na/K osmolytes, mOsm/L
	waterIntake float64 // ml/min
	naIntake    float64 // mEq/min
	kIntake     float64 // mEq/min
}

// Outputs bundles every derived quantity for one evaluation instant.
type Outputs struct {
	Tone      Tone
	Hemo      Hemo
	Renal     Renal
	RAAS      RAAS
	Tubular   Tubular
	ADHTarget float64
	Circadian float64
}

// New validates the parameter set and calibrates the model around its
// healthy nominals. If WaterIntake or NaIntake is zero the corresponding
// intake is set to balance the nominal excretion exactly.
func New(p *params.Set) (*Model, error) {
	if p == nil {
		p = params.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	p = p.Clone()

	m := &Model{p: p}

	cal := &m.cal
	cal.sarNominal = (p.MAPSetpoint - p.VenousPressure) / p.CONominal
	rvrNominal := (8.0*p.VenousResistance + cal.sarNominal) / 31.0
	cal.mfpNominal = p.CONominal * rvrNominal

	cal.raffNominal = (p.MAPSetpoint - p.GlomerularPNominal) / p.RBFNominal
	cal.reffNominal = (p.GlomerularPNominal - p.VenousPressure) / p.RBFNominal

	netP := p.GlomerularPNominal - p.BowmanPressure - oncoticPressure(p.PlasmaProtein)
	if netP <= 0 {
		return nil, fmt.Errorf("invalid parameters: net filtration pressure %g is not positive", netP)
	}
	cal.kf = p.GFRNominal / netP

	cal.mdSetpoint = p.GFRNominal / 1000.0 * p.NaNominal *
		(1.0 - p.ProxNaFrac) * (1.0 - p.LoopNaFrac)
	cal.osmRest = p.OsmNominal - 2.0*p.NaNominal - p.KNominal
	cal.kIntake = p.KIntakeNominal

	// Evaluate the nominal excretion with a healthy twin so disease
	// overrides and the circadian phase do not leak into calibration.
	healthy := p.Clone()
	healthy.KfScale = 1
	healthy.PumpScale = 1
	healthy.MAPSetpointShift = 0
	healthy.CircadianAmp = 0
	twin := &Model{p: healthy, cal: m.cal}
	out := twin.Evaluate(twin.NominalState(), 0)

	cal.waterIntake = p.WaterIntake
	if cal.waterIntake == 0 {
		cal.waterIntake = out.Tubular.UrineFlow
	}
	cal.naIntake = p.NaIntake
	if cal.naIntake == 0 {
		cal.naIntake = out.Tubular.NaExcretion
	}
	return m, nil
}

// Params returns the model's parameter set. Callers must not mutate it.
func (m *Model) Params() *params.Set { return m.p }

// Calibrated intake rates, after any auto-balancing at construction.
func (m *Model) WaterIntake() float64 { return m.cal.waterIntake }
func (m *Model) NaIntake() float64    { return m.cal.naIntake }

// NominalState is the healthy equilibrium the calibration targets. With
// circadian forcing off, Derive at this state is zero to within rounding.
func (m *Model) NominalState() dynamo.State {
	p := m.p
	x := make(dynamo.State, NumStates)
	x[IxBloodVolume] = p.BloodVolumeNominal
	x[IxCODelayed] = p.CONominal
	x[IxMAPFiltered] = p.MAPSetpoint
	x[IxSympTone] = p.SympToneNominal
	x[IxRenin] = p.ReninNominal
	x[IxAngI] = p.AngINominal
	x[IxAngII] = p.AngIINominal
	x[IxAldosterone] = p.AldoNominal
	x[IxADH] = p.ADHNominal
	x[IxPlasmaNa] = p.NaNominal
	x[IxPlasmaK] = p.KNominal
	x[IxPlasmaOsm] = p.OsmNominal
	x[IxMaculaDensaNa] = m.cal.mdSetpoint
	return x
}

// Evaluate computes every derived quantity at (x, t) without advancing
// the state. Derive and the Reporter both go through here, so a recorded
// derived sample always matches what the integrator saw.
func (m *Model) Evaluate(x dynamo.State, t float64) Outputs {
	circ := circadianFactor(m.p, t)
	tone := computeTone(m.p, x)
	hemo := m.computeHemo(x, tone)
	renal := m.computeRenal(x, hemo, tone, circ)
	raas := m.computeRAAS(x, tone, circ)
	tub := m.computeTubular(x, renal, tone)

	return Outputs{
		Tone:      tone,
		Hemo:      hemo,
		Renal:     renal,
		RAAS:      raas,
		Tubular:   tub,
		ADHTarget: m.adhTarget(x, circ),
		Circadian: circ,
	}
}

// Derive is the ODE right-hand side. Balance equations for volume and
// solutes, first-order relaxations for everything hormonal or filtered.
func (m *Model) Derive(x dynamo.State, t float64) dynamo.State {
	p := m.p
	out := m.Evaluate(x, t)

	bv := x[IxBloodVolume]
	if bv < minBloodVolume {
		bv = minBloodVolume
	}

	d := make(dynamo.State, NumStates)
	d[IxBloodVolume] = (m.cal.waterIntake - out.Tubular.UrineFlow) / 1000.0
	d[IxCODelayed] = (out.Hemo.CO - x[IxCODelayed]) / p.TauCODelay
	d[IxMAPFiltered] = (out.Hemo.MAP - x[IxMAPFiltered]) / p.TauMAPFilter
	d[IxSympTone] = (out.Tone.SympatheticTarget - x[IxSympTone]) / p.TauSymp
	d[IxRenin] = (out.RAAS.ReninTarget - x[IxRenin]) / p.TauRenin
	d[IxAngI] = (out.RAAS.AngITarget - x[IxAngI]) / p.TauAngI
	d[IxAngII] = (out.RAAS.AngIITarget - x[IxAngII]) / p.TauAngII
	d[IxAldosterone] = (out.RAAS.AldoTarget - x[IxAldosterone]) / p.TauAldosterone
	d[IxADH] = (out.ADHTarget - x[IxADH]) / p.TauADH
	d[IxPlasmaNa] = (m.cal.naIntake - out.Tubular.NaExcretion) / bv
	d[IxPlasmaK] = (m.cal.kIntake - out.Tubular.KExcretion) / p.ECFNominal
	d[IxPlasmaOsm] = (2.0*x[IxPlasmaNa] + x[IxPlasmaK] + m.cal.osmRest - x[IxPlasmaOsm]) / p.TauOsm
	d[IxMaculaDensaNa] = (out.Tubular.DistalNaDelivery - x[IxMaculaDensaNa]) / p.TauMD
	return d
}

func (m *Model) StateDim() int { return NumStates }

func (m *Model) StateNames() []string   { return stateNames }
func (m *Model) DerivedNames() []string { return derivedNames }

// Derived returns the report row matching DerivedNames.
func (m *Model) Derived(x dynamo.State, t float64) []float64 {
	out := m.Evaluate(x, t)
	return []float64{
		out.Hemo.MAP,
		out.Hemo.CO,
		out.Hemo.TPR,
		out.Renal.GFR,
		out.Renal.RBF,
		out.Renal.FiltFraction,
		out.Renal.Pglom,
		out.Renal.Raff,
		out.Renal.Reff,
		out.Tubular.UrineFlow,
		out.Tubular.NaExcretion,
		out.Tone.BaroFiring,
		out.Tone.RSNA,
		out.Tone.HeartRate,
		out.Tone.StrokeVolume,
		out.Circadian,
	}
}

// Clamp pins each state entry to its physiological range in place and
// returns the number of entries that were out of range. The driver calls
// this after every accepted step.
func (m *Model) Clamp(x dynamo.State) int {
	p := m.p
	n := 0
	pin := func(ix int, lo, hi float64) {
		if x[ix] < lo {
			x[ix] = lo
			n++
		} else if x[ix] > hi {
			x[ix] = hi
			n++
		}
	}
	pin(IxBloodVolume, minBloodVolume, 4.0*p.BloodVolumeNominal)
	pin(IxCODelayed, minFlow, 10.0*p.CONominal)
	pin(IxMAPFiltered, 1.0, 4.0*p.MAPSetpoint)
	pin(IxSympTone, p.ToneMin, p.ToneMax)
	pin(IxRenin, 0, p.ReninMax)
	pin(IxAngI, 0, 20.0*p.AngINominal)
	pin(IxAngII, 0, 20.0*p.AngIINominal)
	pin(IxAldosterone, 0, p.AldoMax)
	pin(IxADH, 0, p.ADHMax)
	pin(IxPlasmaNa, 0, 2.0*p.NaNominal)
	pin(IxPlasmaK, 0, 4.0*p.KNominal)
	pin(IxPlasmaOsm, 1.0, 2.0*p.OsmNominal)
	pin(IxMaculaDensaNa, 0, 20.0*m.cal.mdSetpoint)
	return n
}

const minBloodVolume = 0.25
