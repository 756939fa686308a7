package dynamo

import "math"

// State is a vector of technology shares. The solver keeps every entry
// non-negative and the total equal to one after each recorded step.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// MaxAbs returns the largest entry magnitude, used to compare runs at
// different step sizes.
func (s State) MaxAbs() float64 {
	max := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	return max
}

// System is a right-hand side of an ODE in shares: dX/dt = f(X, t).
// Scenario parameters live inside the implementation; the solver never
// inspects them.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Integrator advances a state by one step of size dt.
type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}

// Config describes a single run.
//
// ClipFinal controls the last partial step when TEnd-T0 is not a
// multiple of Dt: false keeps the fixed step and overshoots TEnd by
// less than Dt, true shortens the last step to land exactly on TEnd.
type Config struct {
	T0        float64
	TEnd      float64
	Dt        float64
	ClipFinal bool
}

// Trajectory holds the recorded time series of a run. The first sample
// is (T0, x0); every later sample is the normalized state after a step.
type Trajectory struct {
	Times  []float64
	States []State
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Final() (float64, State) {
	n := len(tr.Times)
	if n == 0 {
		return 0, nil
	}
	return tr.Times[n-1], tr.States[n-1]
}

// Series extracts the time series of a single share index.
func (tr *Trajectory) Series(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}
