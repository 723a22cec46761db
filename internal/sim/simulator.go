// Package sim drives a dynamo.System through time: fixed or adaptive
// stepping, physiological clamping, metric collection, and trajectory
// recording. One Simulator runs one trajectory at a time; the run is
// fully deterministic for a given system, integrator, and config.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/renosim/internal/dynamo"
)

type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(sys dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over cfg.Duration. It always returns the
// trajectory recorded so far: on failure or context cancellation the
// result holds the valid prefix, with Status, FailTime, and Err set.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Ceil(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		Times:   make([]float64, 0, steps+1),
		States:  make([]dynamo.State, 0, steps+1),
		Metrics: make(map[string]float64),
		Status:  dynamo.Initialized,
	}
	reporter, _ := s.sys.(dynamo.Reporter)
	if reporter != nil {
		result.Derived = make([][]float64, 0, steps+1)
	}
	bounded, _ := s.sys.(dynamo.Bounded)

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	record := func() {
		result.Times = append(result.Times, t)
		result.States = append(result.States, x.Clone())
		if reporter != nil {
			result.Derived = append(result.Derived, reporter.Derived(x, t))
		}
	}
	fail := func(step int, err error) {
		result.Status = dynamo.Failed
		result.FailTime = t
		result.Err = &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
	}

	record()
	result.Status = dynamo.Stepping

	for step := 0; t < cfg.Duration-1e-12; step++ {
		select {
		case <-ctx.Done():
			result.Status = dynamo.Aborted
			result.FailTime = t
			result.Err = ctx.Err()
			return result, result.Err
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		// Never step past the end of the run.
		h := dt
		if t+h > cfg.Duration {
			h = cfg.Duration - t
		}

		var newX dynamo.State
		var err error
		if cfg.Adaptive {
			newX, h, dt, err = s.adaptiveStep(x, t, h, cfg)
		} else {
			newX = s.integrator.Step(s.sys, x, t, h)
		}
		if err != nil {
			fail(step, err)
			return result, result.Err
		}

		if cfg.ValidateState && !newX.IsValid() {
			fail(step, dynamo.ErrInvalidState)
			return result, result.Err
		}

		x = newX
		t += h
		result.StepsTaken++
		if bounded != nil {
			result.BoundViolations += bounded.Clamp(x)
		}
		record()
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Status = dynamo.Completed
	return result, nil
}

// adaptiveStep takes one accepted step of size at most h, retrying with
// smaller trial sizes when the integrator rejects. It returns the new
// state, the step size actually taken, and the dt to start the next step
// with.
func (s *Simulator) adaptiveStep(x dynamo.State, t, h float64, cfg dynamo.Config) (dynamo.State, float64, float64, error) {
	adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator)
	if !ok {
		// Step doubling for integrators without an embedded estimate.
		return s.stepDoubling(x, t, h, cfg)
	}

	for retry := 0; ; retry++ {
		newX, suggested, err := adaptive.StepAdaptive(s.sys, x, t, h, cfg.Tolerance)
		if err == nil {
			next := math.Min(suggested, cfg.MaxDt)
			if next < cfg.MinDt {
				next = cfg.MinDt
			}
			return newX, h, next, nil
		}
		if err != dynamo.ErrStepRejected {
			return nil, 0, 0, err
		}
		if retry >= cfg.MaxRetries {
			return nil, 0, 0, dynamo.ErrUnstable
		}
		if suggested < cfg.MinDt {
			return nil, 0, 0, dynamo.ErrStepTooSmall
		}
		h = suggested
	}
}

func (s *Simulator) stepDoubling(x dynamo.State, t, h float64, cfg dynamo.Config) (dynamo.State, float64, float64, error) {
	for retry := 0; ; retry++ {
		x1 := s.integrator.Step(s.sys, x, t, h)
		xHalf := s.integrator.Step(s.sys, x, t, h/2)
		x2 := s.integrator.Step(s.sys, xHalf, t+h/2, h/2)

		errEst := x1.Sub(x2).Norm()
		if errEst <= cfg.Tolerance {
			next := h
			if errEst < cfg.Tolerance/10 {
				next = math.Min(h*2, cfg.MaxDt)
			}
			return x2, h, next, nil
		}
		if retry >= cfg.MaxRetries {
			return nil, 0, 0, dynamo.ErrUnstable
		}
		if h/2 < cfg.MinDt {
			return nil, 0, 0, dynamo.ErrStepTooSmall
		}
		h /= 2
	}
}

func (s *Simulator) validate(x0 dynamo.State, cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrConfiguration, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrConfiguration, cfg.Duration)
	}
	if cfg.Adaptive {
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", dynamo.ErrConfiguration)
		}
		if cfg.MinDt <= 0 || cfg.MaxDt < cfg.MinDt {
			return fmt.Errorf("%w: need 0 < min_dt <= max_dt, got [%g, %g]",
				dynamo.ErrConfiguration, cfg.MinDt, cfg.MaxDt)
		}
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("%w: initial state has %d entries, system expects %d",
			dynamo.ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	if !x0.IsValid() {
		return fmt.Errorf("%w: initial state", dynamo.ErrInvalidState)
	}
	return nil
}

// RunWithCallback integrates with fixed steps, invoking callback before
// each step; returning false from the callback stops the run cleanly.
// Used by the live view, which samples rather than records.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	bounded, _ := s.sys.(dynamo.Bounded)
	x := x0.Clone()
	t := 0.0

	for t < cfg.Duration-1e-12 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		h := cfg.Dt
		if t+h > cfg.Duration {
			h = cfg.Duration - t
		}
		x = s.integrator.Step(s.sys, x, t, h)
		t += h

		if cfg.ValidateState && !x.IsValid() {
			return fmt.Errorf("invalid state at t=%.4f min", t)
		}
		if bounded != nil {
			bounded.Clamp(x)
		}
	}
	callback(x, t)
	return nil
}
