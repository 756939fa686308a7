package dynamo

import (
	"context"
	"fmt"
)

// degenerateEps is the smallest post-step total treated as a live
// state; anything at or below it means every share was truncated away.
const degenerateEps = 1e-12

// Solver drives a System forward in fixed steps and renormalizes the
// share vector after every step. Instances are not safe for concurrent
// use; Batch creates one per run.
type Solver struct {
	integ Integrator
}

func NewSolver(integ Integrator) *Solver {
	return &Solver{integ: integ}
}

// Run integrates sys from (cfg.T0, x0) to cfg.TEnd and returns the full
// trajectory. The first sample is x0 as given; each later sample is the
// post-normalization state of one step. On any failure no trajectory is
// returned at all.
func (s *Solver) Run(ctx context.Context, sys System, x0 State, cfg Config) (*Trajectory, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	steps := int((cfg.TEnd-cfg.T0)/cfg.Dt) + 2
	traj := &Trajectory{
		Times:  make([]float64, 0, steps),
		States: make([]State, 0, steps),
	}

	x := x0.Clone()
	t := cfg.T0

	traj.Times = append(traj.Times, t)
	traj.States = append(traj.States, x.Clone())

	for step := 0; t < cfg.TEnd; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		h := cfg.Dt
		last := false
		if cfg.ClipFinal && t+h >= cfg.TEnd {
			h = cfg.TEnd - t
			last = true
		}

		next, err := s.Advance(sys, x, t, h)
		if err != nil {
			return nil, &SimError{Step: step, Time: t + h, Err: err}
		}

		x = next
		if last {
			t = cfg.TEnd
		} else {
			t += h
		}

		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, x.Clone())

		if last {
			break
		}
	}

	return traj, nil
}

// Advance performs a single step of size dt and applies the
// normalization policy: negative entries are truncated to zero, then
// the vector is rescaled so its entries sum to exactly one.
func (s *Solver) Advance(sys System, x State, t, dt float64) (State, error) {
	next := s.integ.Step(sys, x, t, dt)

	if !next.IsValid() {
		return nil, ErrInvalidState
	}

	total := 0.0
	for i, v := range next {
		if v < 0 {
			next[i] = 0
			continue
		}
		total += v
	}
	if total <= degenerateEps {
		return nil, ErrDegenerateState
	}
	for i := range next {
		next[i] /= total
	}

	return next, nil
}

func validate(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g: %w", cfg.Dt, ErrInvalidRange)
	}
	if cfg.TEnd <= cfg.T0 {
		return fmt.Errorf("t_end %g must be greater than t0 %g: %w", cfg.TEnd, cfg.T0, ErrInvalidRange)
	}
	return nil
}
