package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/renosim/internal/dynamo"
)

func TestRK45Accuracy(t *testing.T) {
	sys := &oscillator{}
	integ := NewRK45()

	x := dynamo.State{1.0, 0.0}
	dt := 0.05
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	expected := math.Cos(float64(steps) * dt)
	if math.Abs(x[0]-expected) > 1e-5 {
		t.Errorf("position error too large: got %.8f, expected %.8f", x[0], expected)
	}
}

func TestRK45AcceptsSmoothStep(t *testing.T) {
	sys := &oscillator{}
	integ := NewRK45()

	x := dynamo.State{1.0, 0.0}
	newX, dtNew, err := integ.StepAdaptive(sys, x, 0, 0.01, 1e-6)
	if err != nil {
		t.Fatalf("smooth step rejected: %v", err)
	}
	if dtNew <= 0 {
		t.Errorf("suggested dt must be positive, got %g", dtNew)
	}
	if len(newX) != 2 {
		t.Errorf("state dimension changed: %d", len(newX))
	}
}

func TestRK45RejectsLargeStep(t *testing.T) {
	sys := &oscillator{}
	integ := NewRK45()

	x := dynamo.State{1.0, 0.0}
	_, dtNew, err := integ.StepAdaptive(sys, x, 0, 2.0, 1e-12)
	if !errors.Is(err, dynamo.ErrStepRejected) {
		t.Fatalf("expected rejection at loose dt and tight tolerance, got %v", err)
	}
	if dtNew >= 2.0 {
		t.Errorf("rejected step must suggest a smaller dt, got %g", dtNew)
	}
}
