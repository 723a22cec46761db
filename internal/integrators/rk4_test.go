package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/renosim/internal/dynamo"
)

type oscillator struct{}

func (o *oscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (o *oscillator) StateDim() int { return 2 }

func TestRK4Accuracy(t *testing.T) {
	sys := &oscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4MoreAccurateThanEuler(t *testing.T) {
	sys := &oscillator{}
	rk4 := NewRK4()
	euler := NewEuler()

	dt := 0.05
	steps := 200

	xr := dynamo.State{1.0, 0.0}
	xe := dynamo.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		tNow := float64(i) * dt
		xr = rk4.Step(sys, xr, tNow, dt)
		xe = euler.Step(sys, xe, tNow, dt)
	}

	expected := math.Cos(float64(steps) * dt)
	rk4Err := math.Abs(xr[0] - expected)
	eulerErr := math.Abs(xe[0] - expected)

	if rk4Err >= eulerErr {
		t.Errorf("rk4 error %.2e not smaller than euler error %.2e", rk4Err, eulerErr)
	}
}

func TestRK4DoesNotMutateInput(t *testing.T) {
	sys := &oscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	orig := x.Clone()
	_ = integ.Step(sys, x, 0, 0.01)

	for i := range x {
		if x[i] != orig[i] {
			t.Fatalf("input state mutated at index %d: %.6f != %.6f", i, x[i], orig[i])
		}
	}
}
