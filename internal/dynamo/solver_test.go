package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

// rk4TestStepper is a plain RK4 step, local to the tests so the solver
// package does not depend on the integrators package.
type rk4TestStepper struct{}

func (rk4TestStepper) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	add := func(a State, k State, h float64) State {
		out := make(State, n)
		for i := range a {
			out[i] = a[i] + h*k[i]
		}
		return out
	}

	k1 := sys.Derive(x, t)
	k2 := sys.Derive(add(x, k1, dt/2), t+dt/2)
	k3 := sys.Derive(add(x, k2, dt/2), t+dt/2)
	k4 := sys.Derive(add(x, k3, dt), t+dt)

	out := make(State, n)
	for i := range x {
		out[i] = x[i] + dt/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}

// shareTestSystem is a five-share replicator with constant fitness.
type shareTestSystem struct {
	fitness []float64
}

func (s *shareTestSystem) Dim() int { return len(s.fitness) }

func (s *shareTestSystem) Derive(x State, t float64) State {
	phi := 0.0
	for i := range x {
		phi += x[i] * s.fitness[i]
	}
	dx := make(State, len(x))
	for i := range x {
		dx[i] = x[i] * (s.fitness[i] - phi)
	}
	return dx
}

type fnSystem struct {
	dim int
	fn  func(x State, t float64) State
}

func (s *fnSystem) Dim() int                        { return s.dim }
func (s *fnSystem) Derive(x State, t float64) State { return s.fn(x, t) }

func defaultSystem() *shareTestSystem {
	return &shareTestSystem{fitness: []float64{0.02, 0.015, 0.027, 0.0315, 0.006}}
}

func TestRun_BoundaryRejection(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	x0 := State{0.2, 0.2, 0.2, 0.2, 0.2}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{T0: 0, TEnd: 10, Dt: 0}},
		{"negative dt", Config{T0: 0, TEnd: 10, Dt: -0.1}},
		{"empty interval", Config{T0: 5, TEnd: 5, Dt: 0.1}},
		{"reversed interval", Config{T0: 10, TEnd: 0, Dt: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj, err := solver.Run(context.Background(), defaultSystem(), x0, tt.cfg)
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
			if traj != nil {
				t.Error("no trajectory should be returned on a rejected range")
			}
		})
	}
}

func TestRun_ConservationAndPositivity(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	x0 := State{0.038, 0.256, 0.244, 0.295, 0.167}
	cfg := Config{T0: 0, TEnd: 100, Dt: 0.1}

	traj, err := solver.Run(context.Background(), defaultSystem(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for k, x := range traj.States {
		if math.Abs(x.Sum()-1.0) > 1e-9 {
			t.Fatalf("sample %d: sum %.12f drifted from 1", k, x.Sum())
		}
		for i, v := range x {
			if v < 0 {
				t.Fatalf("sample %d: negative share x[%d] = %e", k, i, v)
			}
		}
	}
}

func TestRun_ZeroGrowthFixedPoint(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	sys := &shareTestSystem{fitness: []float64{0, 0, 0, 0, 0}}
	x0 := State{0.038, 0.256, 0.244, 0.295, 0.167}
	cfg := Config{T0: 0, TEnd: 50, Dt: 0.1}

	traj, err := solver.Run(context.Background(), sys, x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	_, final := traj.Final()
	for i := range x0 {
		if math.Abs(final[i]-x0[i]) > 1e-12 {
			t.Errorf("share %d moved under zero growth: %.15f -> %.15f", i, x0[i], final[i])
		}
	}
}

func TestRun_RecordsInitialState(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	x0 := State{0.4, 0.6}
	sys := &shareTestSystem{fitness: []float64{0.1, 0.2}}

	traj, err := solver.Run(context.Background(), sys, x0, Config{T0: 2, TEnd: 3, Dt: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if traj.Times[0] != 2 {
		t.Errorf("first time = %v, want t0", traj.Times[0])
	}
	if traj.States[0][0] != 0.4 || traj.States[0][1] != 0.6 {
		t.Errorf("first sample should be x0, got %v", traj.States[0])
	}
}

func TestRun_SampleCountExactMultiple(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	sys := &shareTestSystem{fitness: []float64{0, 0}}

	traj, err := solver.Run(context.Background(), sys, State{0.5, 0.5}, Config{T0: 0, TEnd: 1, Dt: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// 10 steps plus the initial sample. Accumulated rounding may add
	// one extra step when 0.1 sums slightly under 1.0.
	if traj.Len() < 11 || traj.Len() > 12 {
		t.Errorf("expected 11 or 12 samples, got %d", traj.Len())
	}

	tf, _ := traj.Final()
	if tf < 1.0-1e-9 || tf >= 1.0+0.1 {
		t.Errorf("final time %v outside [t_end, t_end+dt)", tf)
	}
}

func TestRun_OvershootWithoutClip(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	sys := &shareTestSystem{fitness: []float64{0, 0}}

	traj, err := solver.Run(context.Background(), sys, State{0.5, 0.5}, Config{T0: 0, TEnd: 1, Dt: 0.3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tf, _ := traj.Final()
	if math.Abs(tf-1.2) > 1e-12 {
		t.Errorf("expected overshoot to t=1.2, got %v", tf)
	}
}

func TestRun_ClipFinalLandsOnTEnd(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	sys := &shareTestSystem{fitness: []float64{0, 0}}

	traj, err := solver.Run(context.Background(), sys, State{0.5, 0.5},
		Config{T0: 0, TEnd: 1, Dt: 0.3, ClipFinal: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tf, _ := traj.Final()
	if tf != 1.0 {
		t.Errorf("expected exact landing on t_end, got %v", tf)
	}

	// Penultimate sample still on the fixed grid.
	prev := traj.Times[traj.Len()-2]
	if math.Abs(prev-0.9) > 1e-12 {
		t.Errorf("penultimate time = %v, want 0.9", prev)
	}
}

func TestRun_DegenerateState(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	// Constant downward drift pushes every share below zero in one step.
	sys := &fnSystem{dim: 2, fn: func(x State, t float64) State {
		return State{-10, -10}
	}}

	traj, err := solver.Run(context.Background(), sys, State{0.5, 0.5}, Config{T0: 0, TEnd: 1, Dt: 0.5})
	if !errors.Is(err, ErrDegenerateState) {
		t.Fatalf("expected ErrDegenerateState, got %v", err)
	}
	if traj != nil {
		t.Error("no partial trajectory on collapse")
	}

	var simErr *SimError
	if !errors.As(err, &simErr) {
		t.Fatal("error should carry step context")
	}
	if simErr.Step != 0 {
		t.Errorf("collapse reported at step %d, want 0", simErr.Step)
	}
}

func TestRun_InvalidState(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	sys := &fnSystem{dim: 1, fn: func(x State, t float64) State {
		return State{math.NaN()}
	}}

	_, err := solver.Run(context.Background(), sys, State{1}, Config{T0: 0, TEnd: 1, Dt: 0.1})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	solver := NewSolver(rk4TestStepper{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	traj, err := solver.Run(ctx, defaultSystem(), State{0.2, 0.2, 0.2, 0.2, 0.2},
		Config{T0: 0, TEnd: 100, Dt: 0.01})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if traj != nil {
		t.Error("no trajectory on cancellation")
	}
}

type fixedStepper struct {
	out State
}

func (f fixedStepper) Step(sys System, x State, t, dt float64) State {
	return f.out.Clone()
}

func TestAdvance_ClampAndRescale(t *testing.T) {
	solver := NewSolver(fixedStepper{out: State{-0.2, 0.6, 0.6}})

	next, err := solver.Advance(nil, State{0.4, 0.3, 0.3}, 0, 0.1)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	want := State{0, 0.5, 0.5}
	for i := range want {
		if math.Abs(next[i]-want[i]) > 1e-12 {
			t.Errorf("next[%d] = %v, want %v", i, next[i], want[i])
		}
	}
	if math.Abs(next.Sum()-1.0) > 1e-15 {
		t.Errorf("sum after rescale = %.18f", next.Sum())
	}
}

func TestBatch_IndependentRuns(t *testing.T) {
	batch := NewBatch(func() Integrator { return rk4TestStepper{} })

	x0 := State{0.2, 0.2, 0.2, 0.2, 0.2}
	jobs := []Job{
		{Sys: &shareTestSystem{fitness: []float64{0.02, 0.015, 0.027, 0.0315, 0.006}}, X0: x0, Cfg: Config{TEnd: 20, Dt: 0.1}},
		{Sys: &shareTestSystem{fitness: []float64{0.01, 0.015, 0.045, 0.054, 0.006}}, X0: x0, Cfg: Config{TEnd: 20, Dt: 0.1}},
	}

	results, err := batch.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 trajectories, got %d", len(results))
	}

	_, a := results[0].Final()
	_, b := results[1].Final()
	if a.Sub(b).MaxAbs() < 1e-6 {
		t.Error("different fitness tables should produce different final mixes")
	}
}

func TestBatch_PropagatesError(t *testing.T) {
	batch := NewBatch(func() Integrator { return rk4TestStepper{} })

	jobs := []Job{
		{Sys: defaultSystem(), X0: State{0.2, 0.2, 0.2, 0.2, 0.2}, Cfg: Config{TEnd: 1, Dt: 0}},
	}

	_, err := batch.Run(context.Background(), jobs)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
