// Package experiment assembles a model, integrator, and driver from a
// run configuration and executes the scenario.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/renosim/internal/config"
	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/physio"
	"github.com/san-kum/renosim/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	model     *physio.Model
	simulator *sim.Simulator
	initial   dynamo.State
}

// New builds the full pipeline for one scenario run. The returned
// experiment is ready to Run.
func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	model, err := cfg.BuildModel()
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	simulator := sim.New(model, integ)
	for _, m := range reg.DefaultMetrics(model) {
		simulator.AddMetric(m)
	}

	return &Experiment{
		cfg:       cfg,
		model:     model,
		simulator: simulator,
		initial:   cfg.InitialState(model),
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.simulator.Run(ctx, e.initial.Clone(), e.cfg.SimConfig())
}

func (e *Experiment) Model() *physio.Model      { return e.model }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) InitialState() dynamo.State {
	return e.initial.Clone()
}
func (e *Experiment) Config() *config.Config { return e.cfg }
