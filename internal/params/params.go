package params

import (
	"fmt"
	"math"
)

// Set is the immutable physiological parameter set. It is constructed once
// (Default plus optional disease overrides), validated, and passed
// explicitly to the model; nothing mutates it after construction.
//
// Units: pressures mmHg, flows L/min (renal filtrate ml/min), volumes L,
// concentrations mEq/L (osmolarity mOsm/L), resistances mmHg/(L/min),
// time constants minutes. Hormones are normalized to 1.0 at nominal.
type Set struct {
	// Systemic hemodynamics
	MAPSetpoint        float64 `yaml:"map_setpoint"`
	CONominal          float64 `yaml:"co_nominal"`
	BloodVolumeNominal float64 `yaml:"blood_volume_nominal"`
	ECFNominal         float64 `yaml:"ecf_nominal"`
	VenousPressure     float64 `yaml:"venous_pressure"`
	VenousResistance   float64 `yaml:"venous_resistance"`
	VenousCompliance   float64 `yaml:"venous_compliance"`
	PlasmaProtein      float64 `yaml:"plasma_protein"`
	Hematocrit         float64 `yaml:"hematocrit"`
	TissueAutoregScale float64 `yaml:"tissue_autoreg_scale"`
	AutoregGain        float64 `yaml:"autoreg_gain"`
	AutoregFloor       float64 `yaml:"autoreg_floor"`
	AT1SVRSlope        float64 `yaml:"at1_svr_slope"`
	TauCODelay         float64 `yaml:"tau_co_delay"`
	TauMAPFilter       float64 `yaml:"tau_map_filter"`

	// Renal vasculature
	RBFNominal         float64 `yaml:"rbf_nominal"`
	GFRNominal         float64 `yaml:"gfr_nominal"`
	GlomerularPNominal float64 `yaml:"glomerular_p_nominal"`
	BowmanPressure     float64 `yaml:"bowman_pressure"`
	AT1PreaffScale     float64 `yaml:"at1_preaff_scale"`
	AT1PreaffSlope     float64 `yaml:"at1_preaff_slope"`
	AT1EfferentGain    float64 `yaml:"at1_efferent_gain"`
	SympRenalVasoGain  float64 `yaml:"symp_renal_vaso_gain"`
	TGFMin             float64 `yaml:"tgf_min"`
	TGFMax             float64 `yaml:"tgf_max"`
	TGFSlope           float64 `yaml:"tgf_slope"`

	// Tubular segment reabsorption fractions (of the segment's inbound load)
	ProxNaFrac       float64 `yaml:"prox_na_frac"`
	LoopNaFrac       float64 `yaml:"loop_na_frac"`
	DistalNaFrac     float64 `yaml:"distal_na_frac"`
	CDNaFrac         float64 `yaml:"cd_na_frac"`
	LoopWaterFrac    float64 `yaml:"loop_water_frac"`
	DistalWaterFrac  float64 `yaml:"distal_water_frac"`
	CDWaterFrac      float64 `yaml:"cd_water_frac"`
	NaFracMax        float64 `yaml:"na_frac_max"`
	LoopWaterFracMax float64 `yaml:"loop_water_frac_max"`
	CDWaterFracMax   float64 `yaml:"cd_water_frac_max"`
	ProxAngIIGain    float64 `yaml:"prox_angii_gain"`
	AldoNaGain       float64 `yaml:"aldo_na_gain"`
	ADHLoopGain      float64 `yaml:"adh_loop_gain"`
	ADHWaterGain     float64 `yaml:"adh_water_gain"`
	SympNaGain       float64 `yaml:"symp_na_gain"`
	NatriuresisGain  float64 `yaml:"natriuresis_gain"`

	// Intake. Zero means "balance nominal excretion", computed at model
	// construction so the nominal state is an exact equilibrium.
	WaterIntake    float64 `yaml:"water_intake"`     // ml/min
	NaIntake       float64 `yaml:"na_intake"`        // mEq/min
	KIntakeNominal float64 `yaml:"k_intake_nominal"` // mEq/min
	AldoKExcrGain  float64 `yaml:"aldo_k_excr_gain"`

	// RAAS
	ReninNominal      float64 `yaml:"renin_nominal"`
	AngINominal       float64 `yaml:"angi_nominal"`
	AngIINominal      float64 `yaml:"angii_nominal"`
	AldoNominal       float64 `yaml:"aldo_nominal"`
	ACEActivity       float64 `yaml:"ace_activity"`
	AngiotensinogenAv float64 `yaml:"angiotensinogen_av"`
	ReninPressureGain float64 `yaml:"renin_pressure_gain"`
	ReninMDGain       float64 `yaml:"renin_md_gain"`
	SympReninGain     float64 `yaml:"symp_renin_gain"`
	ReninMin          float64 `yaml:"renin_min"`
	ReninMax          float64 `yaml:"renin_max"`
	AldoAngIIGain     float64 `yaml:"aldo_angii_gain"`
	AldoKGain         float64 `yaml:"aldo_k_gain"`
	AldoMin           float64 `yaml:"aldo_min"`
	AldoMax           float64 `yaml:"aldo_max"`
	TauRenin          float64 `yaml:"tau_renin"`
	TauAngI           float64 `yaml:"tau_angi"`
	TauAngII          float64 `yaml:"tau_angii"`
	TauAldosterone    float64 `yaml:"tau_aldosterone"`

	// ADH
	ADHNominal    float64 `yaml:"adh_nominal"`
	ADHOsmoGain   float64 `yaml:"adh_osmo_gain"`
	ADHVolumeGain float64 `yaml:"adh_volume_gain"`
	ADHMax        float64 `yaml:"adh_max"`
	TauADH        float64 `yaml:"tau_adh"`

	// Plasma composition
	NaNominal  float64 `yaml:"na_nominal"`
	KNominal   float64 `yaml:"k_nominal"`
	OsmNominal float64 `yaml:"osm_nominal"`
	TauOsm     float64 `yaml:"tau_osm"`
	TauMD      float64 `yaml:"tau_md"`

	// Neural control
	SympToneNominal     float64 `yaml:"symp_tone_nominal"`
	ParasympToneNominal float64 `yaml:"parasymp_tone_nominal"`
	RSNANominal         float64 `yaml:"rsna_nominal"`
	BaroSlope           float64 `yaml:"baro_slope"`
	ToneMin             float64 `yaml:"tone_min"`
	ToneMax             float64 `yaml:"tone_max"`
	TauSymp             float64 `yaml:"tau_symp"`
	SympSVRGain         float64 `yaml:"symp_svr_gain"`
	HRNominal           float64 `yaml:"hr_nominal"`
	StrokeVolNominal    float64 `yaml:"stroke_vol_nominal"`
	SympHRGain          float64 `yaml:"symp_hr_gain"`
	ParasympHRGain      float64 `yaml:"parasymp_hr_gain"`
	SympContractGain    float64 `yaml:"symp_contract_gain"`

	// Circadian forcing
	CircadianAmp   float64 `yaml:"circadian_amp"`
	CircadianPhase float64 `yaml:"circadian_phase"`

	// Disease-state overrides. Calibration always uses the healthy
	// nominals, so an override starts the run off equilibrium and the
	// trajectory shows the disease transient.
	KfScale          float64 `yaml:"kf_scale"`
	PumpScale        float64 `yaml:"pump_scale"`
	MAPSetpointShift float64 `yaml:"map_setpoint_shift"`
}

func Default() *Set {
	return &Set{
		MAPSetpoint:        93.0,
		CONominal:          5.0,
		BloodVolumeNominal: 5.0,
		ECFNominal:         15.0,
		VenousPressure:     4.0,
		VenousResistance:   3.4,
		VenousCompliance:   2.0,
		PlasmaProtein:      7.0,
		Hematocrit:         0.4,
		TissueAutoregScale: 1.0,
		AutoregGain:        0.1,
		AutoregFloor:       0.1,
		AT1SVRSlope:        0.5,
		TauCODelay:         5.0,
		TauMAPFilter:       2.0,

		RBFNominal:         1.0,
		GFRNominal:         120.0,
		GlomerularPNominal: 60.0,
		BowmanPressure:     15.0,
		AT1PreaffScale:     1.0,
		AT1PreaffSlope:     0.5,
		AT1EfferentGain:    0.25,
		SympRenalVasoGain:  0.2,
		TGFMin:             0.6,
		TGFMax:             1.4,
		TGFSlope:           4.0,

		ProxNaFrac:       0.67,
		LoopNaFrac:       0.25,
		DistalNaFrac:     0.05,
		CDNaFrac:         0.02,
		LoopWaterFrac:    0.15,
		DistalWaterFrac:  0.10,
		CDWaterFrac:      0.96,
		NaFracMax:        0.95,
		LoopWaterFracMax: 0.60,
		CDWaterFracMax:   0.995,
		ProxAngIIGain:    0.3,
		AldoNaGain:       0.5,
		ADHLoopGain:      0.5,
		ADHWaterGain:     0.8,
		SympNaGain:       0.2,
		NatriuresisGain:  2.5,

		WaterIntake:    0,
		NaIntake:       0,
		KIntakeNominal: 0.1,
		AldoKExcrGain:  0.3,

		ReninNominal:      1.0,
		AngINominal:       1.0,
		AngIINominal:      1.0,
		AldoNominal:       1.0,
		ACEActivity:       1.0,
		AngiotensinogenAv: 1.0,
		ReninPressureGain: 2.0,
		ReninMDGain:       0.5,
		SympReninGain:     0.3,
		ReninMin:          0.05,
		ReninMax:          10.0,
		AldoAngIIGain:     0.5,
		AldoKGain:         0.3,
		AldoMin:           0.05,
		AldoMax:           10.0,
		TauRenin:          20.0,
		TauAngI:           45.0,
		TauAngII:          90.0,
		TauAldosterone:    360.0,

		ADHNominal:    1.0,
		ADHOsmoGain:   10.0,
		ADHVolumeGain: 5.0,
		ADHMax:        10.0,
		TauADH:        30.0,

		NaNominal:  140.0,
		KNominal:   4.0,
		OsmNominal: 290.0,
		TauOsm:     10.0,
		TauMD:      5.0,

		SympToneNominal:     1.0,
		ParasympToneNominal: 1.0,
		RSNANominal:         1.0,
		BaroSlope:           8.0,
		ToneMin:             0.1,
		ToneMax:             5.0,
		TauSymp:             2.0,
		SympSVRGain:         0.2,
		HRNominal:           72.0,
		StrokeVolNominal:    70.0,
		SympHRGain:          0.5,
		ParasympHRGain:      0.3,
		SympContractGain:    0.3,

		CircadianAmp:   0.1,
		CircadianPhase: 0.0,

		KfScale:          1.0,
		PumpScale:        1.0,
		MAPSetpointShift: 0.0,
	}
}

// EffectiveMAPSetpoint is the regulated pressure target: the baroreflex,
// renin pressure effect, ADH pressure term, and pressure natriuresis all
// key off this value.
func (s *Set) EffectiveMAPSetpoint() float64 {
	return s.MAPSetpoint + s.MAPSetpointShift
}

// Validate rejects non-finite values, out-of-range fractions, non-positive
// time constants, and an unordered RAAS cascade. It must pass before the
// first derivative evaluation.
func (s *Set) Validate() error {
	all := map[string]float64{
		"map_setpoint": s.MAPSetpoint, "co_nominal": s.CONominal,
		"blood_volume_nominal": s.BloodVolumeNominal, "ecf_nominal": s.ECFNominal,
		"venous_pressure": s.VenousPressure, "venous_resistance": s.VenousResistance,
		"venous_compliance": s.VenousCompliance, "plasma_protein": s.PlasmaProtein,
		"hematocrit": s.Hematocrit, "tissue_autoreg_scale": s.TissueAutoregScale,
		"autoreg_gain": s.AutoregGain, "autoreg_floor": s.AutoregFloor,
		"at1_svr_slope": s.AT1SVRSlope, "rbf_nominal": s.RBFNominal,
		"gfr_nominal": s.GFRNominal, "glomerular_p_nominal": s.GlomerularPNominal,
		"bowman_pressure": s.BowmanPressure, "at1_preaff_scale": s.AT1PreaffScale,
		"at1_preaff_slope": s.AT1PreaffSlope, "at1_efferent_gain": s.AT1EfferentGain,
		"symp_renal_vaso_gain": s.SympRenalVasoGain, "tgf_min": s.TGFMin,
		"tgf_max": s.TGFMax, "tgf_slope": s.TGFSlope,
		"prox_angii_gain": s.ProxAngIIGain, "aldo_na_gain": s.AldoNaGain,
		"adh_loop_gain": s.ADHLoopGain, "adh_water_gain": s.ADHWaterGain,
		"symp_na_gain": s.SympNaGain, "natriuresis_gain": s.NatriuresisGain,
		"water_intake": s.WaterIntake, "na_intake": s.NaIntake,
		"k_intake_nominal": s.KIntakeNominal, "aldo_k_excr_gain": s.AldoKExcrGain,
		"renin_nominal": s.ReninNominal, "angi_nominal": s.AngINominal,
		"angii_nominal": s.AngIINominal, "aldo_nominal": s.AldoNominal,
		"ace_activity": s.ACEActivity, "angiotensinogen_av": s.AngiotensinogenAv,
		"renin_pressure_gain": s.ReninPressureGain, "renin_md_gain": s.ReninMDGain,
		"symp_renin_gain": s.SympReninGain, "renin_min": s.ReninMin,
		"renin_max": s.ReninMax, "aldo_angii_gain": s.AldoAngIIGain,
		"aldo_k_gain": s.AldoKGain, "aldo_min": s.AldoMin, "aldo_max": s.AldoMax,
		"adh_nominal": s.ADHNominal, "adh_osmo_gain": s.ADHOsmoGain,
		"adh_volume_gain": s.ADHVolumeGain, "adh_max": s.ADHMax,
		"na_nominal": s.NaNominal, "k_nominal": s.KNominal,
		"osm_nominal": s.OsmNominal, "symp_tone_nominal": s.SympToneNominal,
		"parasymp_tone_nominal": s.ParasympToneNominal, "rsna_nominal": s.RSNANominal,
		"baro_slope": s.BaroSlope, "tone_min": s.ToneMin, "tone_max": s.ToneMax,
		"symp_svr_gain": s.SympSVRGain, "hr_nominal": s.HRNominal,
		"stroke_vol_nominal": s.StrokeVolNominal, "symp_hr_gain": s.SympHRGain,
		"parasymp_hr_gain": s.ParasympHRGain, "symp_contract_gain": s.SympContractGain,
		"circadian_amp": s.CircadianAmp, "circadian_phase": s.CircadianPhase,
		"kf_scale": s.KfScale, "pump_scale": s.PumpScale,
		"map_setpoint_shift": s.MAPSetpointShift,
	}
	for name, v := range all {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %s is not finite", name)
		}
	}

	positive := map[string]float64{
		"map_setpoint": s.MAPSetpoint, "co_nominal": s.CONominal,
		"blood_volume_nominal": s.BloodVolumeNominal, "ecf_nominal": s.ECFNominal,
		"venous_compliance": s.VenousCompliance, "rbf_nominal": s.RBFNominal,
		"gfr_nominal": s.GFRNominal, "na_nominal": s.NaNominal,
		"k_nominal": s.KNominal, "osm_nominal": s.OsmNominal,
		"renin_nominal": s.ReninNominal, "angi_nominal": s.AngINominal,
		"angii_nominal": s.AngIINominal, "aldo_nominal": s.AldoNominal,
		"adh_nominal": s.ADHNominal, "symp_tone_nominal": s.SympToneNominal,
		"rsna_nominal": s.RSNANominal, "kf_scale": s.KfScale,
		"pump_scale": s.PumpScale, "tone_max": s.ToneMax,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("parameter %s must be positive, got %g", name, v)
		}
	}

	taus := map[string]float64{
		"tau_renin": s.TauRenin, "tau_angi": s.TauAngI, "tau_angii": s.TauAngII,
		"tau_aldosterone": s.TauAldosterone, "tau_adh": s.TauADH,
		"tau_osm": s.TauOsm, "tau_md": s.TauMD, "tau_symp": s.TauSymp,
		"tau_co_delay": s.TauCODelay, "tau_map_filter": s.TauMAPFilter,
	}
	for name, v := range taus {
		if math.IsNaN(v) || v <= 0 {
			return fmt.Errorf("time constant %s must be positive, got %g", name, v)
		}
	}

	fractions := map[string]float64{
		"prox_na_frac": s.ProxNaFrac, "loop_na_frac": s.LoopNaFrac,
		"distal_na_frac": s.DistalNaFrac, "cd_na_frac": s.CDNaFrac,
		"loop_water_frac": s.LoopWaterFrac, "distal_water_frac": s.DistalWaterFrac,
		"cd_water_frac": s.CDWaterFrac, "na_frac_max": s.NaFracMax,
		"loop_water_frac_max": s.LoopWaterFracMax, "cd_water_frac_max": s.CDWaterFracMax,
		"hematocrit": s.Hematocrit,
	}
	for name, v := range fractions {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("fraction %s must be in [0,1], got %g", name, v)
		}
	}

	// The cascade timing (renin peaks first, aldosterone last) depends on
	// strictly ordered time constants.
	if !(s.TauRenin < s.TauAngI && s.TauAngI < s.TauAngII && s.TauAngII < s.TauAldosterone) {
		return fmt.Errorf("RAAS time constants must satisfy tau_renin < tau_angi < tau_angii < tau_aldosterone, got %g/%g/%g/%g",
			s.TauRenin, s.TauAngI, s.TauAngII, s.TauAldosterone)
	}

	if s.TGFMin > 1 || s.TGFMax < 1 || s.TGFMin >= s.TGFMax {
		return fmt.Errorf("tgf bounds must straddle 1.0 with tgf_min < tgf_max, got [%g, %g]", s.TGFMin, s.TGFMax)
	}
	if s.ToneMin < 0 || s.ToneMin >= s.ToneMax {
		return fmt.Errorf("tone bounds invalid: [%g, %g]", s.ToneMin, s.ToneMax)
	}
	if s.GlomerularPNominal <= s.BowmanPressure {
		return fmt.Errorf("nominal glomerular pressure %g must exceed Bowman pressure %g",
			s.GlomerularPNominal, s.BowmanPressure)
	}
	if s.MAPSetpoint <= s.GlomerularPNominal {
		return fmt.Errorf("MAP setpoint %g must exceed nominal glomerular pressure %g",
			s.MAPSetpoint, s.GlomerularPNominal)
	}
	if s.WaterIntake < 0 || s.NaIntake < 0 || s.KIntakeNominal < 0 {
		return fmt.Errorf("intake rates must be non-negative")
	}
	return nil
}

// Clone returns a deep copy (Set has only scalar fields).
func (s *Set) Clone() *Set {
	c := *s
	return &c
}
