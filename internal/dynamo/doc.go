// Package dynamo provides core primitives for simulating share dynamics.
//
// The package defines the types for fixed-step numerical integration of
// ordinary differential equations (ODEs) over a vector of shares:
//
//   - [State]: vector of technology shares (non-negative, sum one)
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Integrator]: single-step numerical scheme
//   - [Solver]: runs a full trajectory, renormalizing after every step
//
// # Example
//
//	sys := market.NewReplicator(params)
//	solver := dynamo.NewSolver(integrators.NewRK4())
//	traj, err := solver.Run(ctx, sys, x0, cfg)
//
// # Thread Safety
//
// Solver instances are NOT thread-safe. For parallel runs, use [Batch],
// which creates an independent solver per job.
package dynamo
