// Package scenario defines energy transition scenarios and runs them
// through the replicator solver.
package scenario

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"enermix/internal/dynamo"
	"enermix/internal/market"
)

const (
	DefaultT0   = 0.0
	DefaultTEnd = 100.0
	DefaultDt   = 0.1
)

// Scenario is a fixed-shape parameter record for one simulation run.
// GAfter and SwitchTime describe an optional time-triggered policy
// change; with GAfter empty the growth rates are constant.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	X0          []float64 `yaml:"x0"`
	R           []float64 `yaml:"r"`
	G           []float64 `yaml:"g"`
	GAfter      []float64 `yaml:"g_after,omitempty"`
	SwitchTime  float64   `yaml:"switch_time,omitempty"`
	T0          float64   `yaml:"t0"`
	TEnd        float64   `yaml:"t_end"`
	Dt          float64   `yaml:"dt"`
	ClipFinal   bool      `yaml:"clip_final,omitempty"`
}

func (s *Scenario) Validate() error {
	n := len(s.X0)
	if n == 0 {
		return fmt.Errorf("scenario %s: empty initial shares", s.Name)
	}
	if len(s.R) != n || len(s.G) != n {
		return fmt.Errorf("scenario %s: R and G must match x0 length %d", s.Name, n)
	}
	if len(s.GAfter) != 0 && len(s.GAfter) != n {
		return fmt.Errorf("scenario %s: g_after must match x0 length %d", s.Name, n)
	}
	for i, v := range s.X0 {
		if v < 0 {
			return fmt.Errorf("scenario %s: negative initial share x0[%d] = %g", s.Name, i, v)
		}
	}
	if sum := sumOf(s.X0); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("scenario %s: initial shares sum to %g, want 1", s.Name, sum)
	}
	for i, v := range s.R {
		if v <= 0 {
			return fmt.Errorf("scenario %s: efficiency R[%d] = %g must be positive", s.Name, i, v)
		}
	}
	return nil
}

// Params builds the immutable replicator parameters for this scenario.
func (s *Scenario) Params() market.Params {
	growth := market.ConstantGrowth(s.G)
	if len(s.GAfter) > 0 {
		growth = market.SwitchedGrowth(s.G, s.GAfter, s.SwitchTime)
	}
	return market.Params{R: append([]float64(nil), s.R...), Growth: growth}
}

func (s *Scenario) RunConfig() dynamo.Config {
	return dynamo.Config{T0: s.T0, TEnd: s.TEnd, Dt: s.Dt, ClipFinal: s.ClipFinal}
}

// Run validates the scenario and integrates it with the given stepper.
func (s *Scenario) Run(ctx context.Context, integ dynamo.Integrator) (*dynamo.Trajectory, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	sys := market.NewReplicator(s.Params())
	solver := dynamo.NewSolver(integ)
	return solver.Run(ctx, sys, dynamo.State(s.X0).Clone(), s.RunConfig())
}

// RunAll integrates independent scenarios concurrently. Results are
// returned in scenario order.
func RunAll(ctx context.Context, integ func() dynamo.Integrator, scenarios []*Scenario) ([]*dynamo.Trajectory, error) {
	jobs := make([]dynamo.Job, len(scenarios))
	for i, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		jobs[i] = dynamo.Job{
			Sys: market.NewReplicator(sc.Params()),
			X0:  dynamo.State(sc.X0).Clone(),
			Cfg: sc.RunConfig(),
		}
	}

	return dynamo.NewBatch(integ).Run(ctx, jobs)
}

// Load reads a scenario from a yaml file. Missing time bounds fall back
// to the package defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc := &Scenario{T0: DefaultT0, TEnd: DefaultTEnd, Dt: DefaultDt}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func sumOf(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}
