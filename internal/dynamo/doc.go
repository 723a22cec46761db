// Package dynamo defines the shared vocabulary of the simulator: the state
// vector, the System (ODE right-hand side) and Integrator interfaces, run
// configuration, the recorded trajectory, and domain errors.
package dynamo
