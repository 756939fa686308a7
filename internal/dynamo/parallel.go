package dynamo

import (
	"context"
	"sync"
)

// Job is one independent run: a system, its initial shares and bounds.
type Job struct {
	Sys System
	X0  State
	Cfg Config
}

// Batch runs independent jobs concurrently, one goroutine per job.
// Each job gets its own Solver, so no state is shared between runs.
type Batch struct {
	integ func() Integrator
}

// NewBatch takes an integrator factory rather than an instance because
// steppers carry scratch buffers and must not be shared across runs.
func NewBatch(integ func() Integrator) *Batch {
	return &Batch{integ: integ}
}

func (b *Batch) Run(ctx context.Context, jobs []Job) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			job := jobs[idx]
			solver := NewSolver(b.integ())
			results[idx], errs[idx] = solver.Run(ctx, job.Sys, job.X0, job.Cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
