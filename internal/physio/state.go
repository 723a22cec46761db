package physio

// State vector layout. Every smoothed or delayed signal is an explicit
// entry with its own relaxation ODE, so the driver's clamp/validate/step
// logic applies uniformly.
const (
	IxBloodVolume = iota // L
	IxCODelayed          // L/min, exponentially smoothed cardiac output
	IxMAPFiltered        // mmHg, filtered MAP seen by baroreflex and natriuresis
	IxSympTone           // normalized sympathetic tone
	IxRenin              // normalized
	IxAngI               // normalized
	IxAngII              // normalized
	IxAldosterone        // normalized
	IxADH                // normalized
	IxPlasmaNa           // mEq/L
	IxPlasmaK            // mEq/L
	IxPlasmaOsm          // mOsm/L
	IxMaculaDensaNa      // mEq/min, smoothed distal Na delivery
	NumStates
)

var stateNames = []string{
	"blood_volume_l",
	"co_delayed",
	"map_filtered",
	"symp_tone",
	"renin",
	"ang_i",
	"ang_ii",
	"aldosterone",
	"adh",
	"plasma_na",
	"plasma_k",
	"plasma_osm",
	"macula_densa_na",
}

var derivedNames = []string{
	"map",
	"cardiac_output",
	"tpr",
	"gfr_ml_min",
	"rbf_l_min",
	"filtration_fraction",
	"glomerular_pressure",
	"r_afferent",
	"r_efferent",
	"urine_ml_min",
	"na_excretion",
	"baro_firing",
	"rsna",
	"heart_rate",
	"stroke_volume",
	"circadian",
}
