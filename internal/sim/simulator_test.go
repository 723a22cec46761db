package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/integrators"
	"github.com/san-kum/renosim/internal/params"
	"github.com/san-kum/renosim/internal/physio"
)

type decay struct{}

func (d *decay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (d *decay) StateDim() int { return 1 }

func newPhysioModel(t *testing.T) *physio.Model {
	t.Helper()
	p := params.Default()
	p.CircadianAmp = 0
	m, err := physio.New(p)
	if err != nil {
		t.Fatalf("physio.New: %v", err)
	}
	return m
}

func TestRunRecordsTrajectory(t *testing.T) {
	s := New(&decay{}, integrators.NewRK4())
	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0

	result, err := s.Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != dynamo.Completed {
		t.Errorf("status = %s, want completed", result.Status)
	}
	if len(result.Times) != len(result.States) {
		t.Fatalf("times/states length mismatch: %d vs %d", len(result.Times), len(result.States))
	}
	if got := result.Times[len(result.Times)-1]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("final time = %g, want 1.0", got)
	}
	want := math.Exp(-1.0)
	if got := result.Final()[0]; math.Abs(got-want) > 1e-6 {
		t.Errorf("final state = %g, want %g", got, want)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	s := New(&decay{}, integrators.NewRK4())

	cases := []struct {
		name string
		cfg  dynamo.Config
		x0   dynamo.State
		want error
	}{
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1}, dynamo.State{1}, dynamo.ErrConfiguration},
		{"negative duration", dynamo.Config{Dt: 0.1, Duration: -1}, dynamo.State{1}, dynamo.ErrConfiguration},
		{"adaptive without tolerance", dynamo.Config{Dt: 0.1, Duration: 1, Adaptive: true}, dynamo.State{1}, dynamo.ErrConfiguration},
		{"wrong dimension", dynamo.Config{Dt: 0.1, Duration: 1}, dynamo.State{1, 2}, dynamo.ErrDimensionMismatch},
		{"nan initial state", dynamo.Config{Dt: 0.1, Duration: 1}, dynamo.State{math.NaN()}, dynamo.ErrInvalidState},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), c.x0, c.cfg)
			if !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestRunAbortsOnCancel(t *testing.T) {
	s := New(&decay{}, integrators.NewRK4())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0

	result, err := s.Run(ctx, dynamo.State{1.0}, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Status != dynamo.Aborted {
		t.Errorf("status = %s, want aborted", result.Status)
	}
	if len(result.States) == 0 {
		t.Errorf("aborted run must keep its partial trajectory")
	}
}

func TestNominalRunStaysAtEquilibrium(t *testing.T) {
	m := newPhysioModel(t)
	s := New(m, integrators.NewRK4())

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.5
	cfg.Duration = 24 * 60

	result, err := s.Run(context.Background(), m.NominalState(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	p := m.Params()
	final := result.Final()
	if math.Abs(final[physio.IxBloodVolume]-p.BloodVolumeNominal) > 1e-6 {
		t.Errorf("blood volume drifted: %g", final[physio.IxBloodVolume])
	}
	if math.Abs(final[physio.IxMAPFiltered]-p.MAPSetpoint) > 1e-6 {
		t.Errorf("MAP drifted: %g", final[physio.IxMAPFiltered])
	}
	if result.BoundViolations != 0 {
		t.Errorf("equilibrium run clamped %d times", result.BoundViolations)
	}
}

func TestVolumeExpansionIsRegulatedAway(t *testing.T) {
	m := newPhysioModel(t)
	s := New(m, integrators.NewRK4())

	x0 := m.NominalState()
	x0[physio.IxBloodVolume] *= 1.05

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.5
	cfg.Duration = 24 * 60

	result, err := s.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	p := m.Params()
	bv := result.Series(physio.IxBloodVolume)
	mapf := result.Series(physio.IxMAPFiltered)
	renin := result.Series(physio.IxRenin)

	// Early: pressure above setpoint by a bounded amount, renin suppressed.
	early := len(mapf) / 8
	peakMAP := 0.0
	for _, v := range mapf[:early] {
		if v > peakMAP {
			peakMAP = v
		}
	}
	if peakMAP <= p.MAPSetpoint {
		t.Errorf("volume expansion did not raise pressure: peak %g", peakMAP)
	}
	if peakMAP > p.MAPSetpoint+10 {
		t.Errorf("transient peak %g more than 10 mmHg above setpoint %g", peakMAP, p.MAPSetpoint)
	}
	minRenin := math.Inf(1)
	for _, v := range renin {
		if v < minRenin {
			minRenin = v
		}
	}
	if minRenin >= p.ReninNominal {
		t.Errorf("renin never suppressed below nominal: min %g", minRenin)
	}

	// By 24 h the excess volume is excreted and pressure is back within
	// half a percent of the setpoint.
	finalBV := bv[len(bv)-1]
	initialExcess := 0.05 * p.BloodVolumeNominal
	if math.Abs(finalBV-p.BloodVolumeNominal) > initialExcess/10 {
		t.Errorf("final blood volume %g did not recover toward %g", finalBV, p.BloodVolumeNominal)
	}
	finalMAP := mapf[len(mapf)-1]
	if dev := math.Abs(finalMAP-p.MAPSetpoint) / p.MAPSetpoint; dev > 0.005 {
		t.Errorf("final MAP %g is %.2f%% off setpoint %g, want within 0.5%%",
			finalMAP, dev*100, p.MAPSetpoint)
	}
}

func TestRAASCascadePeaksInOrder(t *testing.T) {
	m := newPhysioModel(t)
	s := New(m, integrators.NewRK4())

	// Hemorrhage activates the whole cascade.
	x0 := m.NominalState()
	x0[physio.IxBloodVolume] *= 0.85

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.5
	cfg.Duration = 24 * 60

	result, err := s.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	extremumTime := func(idx int, nominal float64) float64 {
		series := result.Series(idx)
		best, bestT := 0.0, 0.0
		for i, v := range series {
			if dev := math.Abs(v - nominal); dev > best {
				best, bestT = dev, result.Times[i]
			}
		}
		return bestT
	}

	p := m.Params()
	tRenin := extremumTime(physio.IxRenin, p.ReninNominal)
	tAldo := extremumTime(physio.IxAldosterone, p.AldoNominal)
	if tRenin >= tAldo {
		t.Errorf("renin extremum at %.0f min not before aldosterone extremum at %.0f min", tRenin, tAldo)
	}

	// Two hours in, the fast end of the cascade has moved much further
	// from nominal than the slow end.
	i := 0
	for i < len(result.Times) && result.Times[i] < 120 {
		i++
	}
	reninDev := math.Abs(result.States[i][physio.IxRenin] - p.ReninNominal)
	aldoDev := math.Abs(result.States[i][physio.IxAldosterone] - p.AldoNominal)
	if reninDev <= aldoDev {
		t.Errorf("at 2 h, renin deviation %g not ahead of aldosterone deviation %g", reninDev, aldoDev)
	}
}

func TestWaterMassBalance(t *testing.T) {
	m := newPhysioModel(t)
	s := New(m, integrators.NewRK4())

	x0 := m.NominalState()
	x0[physio.IxBloodVolume] *= 1.03

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.5
	cfg.Duration = 12 * 60

	result, err := s.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Trapezoidal balance over the recorded urine series must match the
	// volume change.
	urineIdx := -1
	for i, name := range m.DerivedNames() {
		if name == "urine_ml_min" {
			urineIdx = i
		}
	}
	if urineIdx < 0 {
		t.Fatal("urine column not reported")
	}
	urine := result.DerivedSeries(urineIdx)

	net := 0.0
	for i := 1; i < len(result.Times); i++ {
		h := result.Times[i] - result.Times[i-1]
		net += h * (2*m.WaterIntake() - urine[i] - urine[i-1]) / 2.0 / 1000.0
	}
	gotDelta := result.Final()[physio.IxBloodVolume] - x0[physio.IxBloodVolume]
	if math.Abs(gotDelta-net) > 1e-3 {
		t.Errorf("volume change %g L does not match net fluid balance %g L", gotDelta, net)
	}
}

func TestRenalDysfunctionRetainsFluid(t *testing.T) {
	p := params.Default()
	p.CircadianAmp = 0
	if err := p.ApplyDisease("renal-dysfunction"); err != nil {
		t.Fatal(err)
	}
	m, err := physio.New(p)
	if err != nil {
		t.Fatalf("physio.New: %v", err)
	}
	s := New(m, integrators.NewRK4())

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.5
	cfg.Duration = 72 * 60

	result, err := s.Run(context.Background(), m.NominalState(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Filtration halves immediately: the first derived sample reflects
	// the reduced Kf before any state has moved.
	gfrIdx := -1
	for i, name := range m.DerivedNames() {
		if name == "gfr_ml_min" {
			gfrIdx = i
		}
	}
	if gfrIdx < 0 {
		t.Fatal("gfr column not reported")
	}
	if gfr0 := result.Derived[0][gfrIdx]; math.Abs(gfr0-p.GFRNominal/2) > 1e-9 {
		t.Errorf("initial GFR = %g, want %g", gfr0, p.GFRNominal/2)
	}

	// Halved filtration with unchanged intake: volume accumulates and
	// pressure rises above the healthy value.
	final := result.Final()
	if final[physio.IxBloodVolume] <= p.BloodVolumeNominal {
		t.Errorf("blood volume %g did not accumulate above %g",
			final[physio.IxBloodVolume], p.BloodVolumeNominal)
	}
	if final[physio.IxMAPFiltered] <= p.MAPSetpoint {
		t.Errorf("MAP %g did not rise above %g", final[physio.IxMAPFiltered], p.MAPSetpoint)
	}

	// The retained fluid settles at a new steady state instead of
	// diverging or oscillating: the trajectory envelope of the final day
	// is far narrower than the day before.
	span := func(series []float64, from, to float64) float64 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i, v := range series {
			if result.Times[i] < from || result.Times[i] > to {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		return hi - lo
	}
	mapf := result.Series(physio.IxMAPFiltered)
	bv := result.Series(physio.IxBloodVolume)
	daySecond := span(mapf, 24*60, 48*60)
	dayThird := span(mapf, 48*60, 72*60)
	if dayThird >= daySecond/4 {
		t.Errorf("MAP not settling: envelope %g over 24-48 h vs %g over 48-72 h",
			daySecond, dayThird)
	}
	if s := span(bv, 48*60, 72*60); s >= 0.01 {
		t.Errorf("blood volume still drifting %g L over the final day", s)
	}
}

func TestAdaptiveRunMatchesFixed(t *testing.T) {
	m := newPhysioModel(t)

	x0 := m.NominalState()
	x0[physio.IxBloodVolume] *= 1.05

	fixedCfg := dynamo.DefaultConfig()
	fixedCfg.Dt = 0.2
	fixedCfg.Duration = 6 * 60

	adaptCfg := fixedCfg
	adaptCfg.Adaptive = true
	adaptCfg.Tolerance = 1e-8

	fixed, err := New(m, integrators.NewRK4()).Run(context.Background(), x0.Clone(), fixedCfg)
	if err != nil {
		t.Fatalf("fixed run: %v", err)
	}
	adaptive, err := New(m, integrators.NewRK45()).Run(context.Background(), x0.Clone(), adaptCfg)
	if err != nil {
		t.Fatalf("adaptive run: %v", err)
	}

	f := fixed.Final()
	a := adaptive.Final()
	for i := range f {
		if math.Abs(f[i]-a[i]) > 1e-3*(math.Abs(f[i])+1) {
			t.Errorf("state %d diverged: fixed %g adaptive %g", i, f[i], a[i])
		}
	}
	if adaptive.Status != dynamo.Completed {
		t.Errorf("adaptive status = %s", adaptive.Status)
	}
}

func TestMetricsRecorded(t *testing.T) {
	m := newPhysioModel(t)
	s := New(m, integrators.NewRK4())
	pl := &countingMetric{}
	s.AddMetric(pl)

	cfg := dynamo.DefaultConfig()
	cfg.Dt = 1.0
	cfg.Duration = 10

	result, err := s.Run(context.Background(), m.NominalState(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, ok := result.Metrics["samples"]
	if !ok {
		t.Fatal("metric not recorded")
	}
	if int(got) != result.StepsTaken {
		t.Errorf("metric observed %d samples, steps taken %d", int(got), result.StepsTaken)
	}
}

type countingMetric struct{ n int }

func (c *countingMetric) Name() string                      { return "samples" }
func (c *countingMetric) Observe(x dynamo.State, t float64) { c.n++ }
func (c *countingMetric) Value() float64                    { return float64(c.n) }
func (c *countingMetric) Reset()                            { c.n = 0 }
