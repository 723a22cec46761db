package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// System is the ODE right-hand side: state and simulated time (minutes)
// to the instantaneous derivative vector. Derive must be stateless; any
// memory (delayed or filtered signals) lives in the state vector itself.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Reporter exposes named state entries and report-only derived quantities
// (GFR, urine flow, ...) recomputed from a state sample.
type Reporter interface {
	StateNames() []string
	DerivedNames() []string
	Derived(x State, t float64) []float64
}

// Bounded clamps a state to its physiological bounds in place and reports
// how many entries had to be clamped.
type Bounded interface {
	Clamp(x State) int
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator rejects steps whose local error estimate exceeds the
// tolerance; the returned dt is the suggested next (or retry) step size.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

// Config holds integration settings. All times are simulated minutes.
type Config struct {
	Dt            float64
	Duration      float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
	MaxRetries    int
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.2,
		Duration:      24 * 60,
		Tolerance:     1e-6,
		MaxDt:         5.0,
		MinDt:         1e-6,
		Adaptive:      false,
		ValidateState: true,
		MaxRetries:    8,
	}
}

type Status int

const (
	Initialized Status = iota
	Stepping
	Completed
	Failed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Stepping:
		return "stepping"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the recorded trajectory: (time, state, derived) samples plus
// run diagnostics. States are independent copies, never aliases of the
// live vector.
type Result struct {
	Times           []float64
	States          []State
	Derived         [][]float64
	Metrics         map[string]float64
	Status          Status
	StepsTaken      int
	BoundViolations int
	FailTime        float64
	Err             error
}

func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Series extracts one state variable over the whole trajectory.
func (r *Result) Series(idx int) []float64 {
	out := make([]float64, len(r.States))
	for i, s := range r.States {
		if idx < len(s) {
			out[i] = s[idx]
		}
	}
	return out
}

// DerivedSeries extracts one derived quantity over the whole trajectory.
func (r *Result) DerivedSeries(idx int) []float64 {
	out := make([]float64, len(r.Derived))
	for i, d := range r.Derived {
		if idx < len(d) {
			out[i] = d[idx]
		}
	}
	return out
}
