// Package market models competition between generation technologies as
// replicator dynamics: each technology's share grows in proportion to
// how much its fitness exceeds the share-weighted mean.
package market

import "enermix/internal/dynamo"

// GrowthFn yields per-technology growth rates at simulation time t.
// Implementations must be pure: same t, same rates.
type GrowthFn func(t float64) []float64

// ConstantGrowth returns the same rates at every time.
func ConstantGrowth(g []float64) GrowthFn {
	rates := append([]float64(nil), g...)
	return func(t float64) []float64 { return rates }
}

// SwitchedGrowth returns before-rates until tSwitch and after-rates
// from then on, modeling a time-triggered policy change.
func SwitchedGrowth(before, after []float64, tSwitch float64) GrowthFn {
	b := append([]float64(nil), before...)
	a := append([]float64(nil), after...)
	return func(t float64) []float64 {
		if t < tSwitch {
			return b
		}
		return a
	}
}

// Params holds the per-technology efficiency factors and the growth
// rate provider. Built once per run and read-only afterward.
type Params struct {
	R      []float64
	Growth GrowthFn
}

// Replicator implements dynamo.System with the replicator right-hand
// side. It performs no input validation; the solver owns normalization.
type Replicator struct {
	params Params
}

func NewReplicator(p Params) *Replicator {
	return &Replicator{params: p}
}

func (r *Replicator) Dim() int { return len(r.params.R) }

func (r *Replicator) Params() Params { return r.params }

// Derive computes dx_i/dt = x_i * (f_i - phi) where f_i = R_i * g_i(t)
// and phi is the share-weighted mean fitness. The derivatives sum to
// zero in exact arithmetic whenever the shares sum to one.
func (r *Replicator) Derive(x dynamo.State, t float64) dynamo.State {
	g := r.params.Growth(t)
	n := len(x)

	phi := 0.0
	f := make([]float64, n)
	for i := 0; i < n; i++ {
		f[i] = r.params.R[i] * g[i]
		phi += x[i] * f[i]
	}

	dx := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		dx[i] = x[i] * (f[i] - phi)
	}
	return dx
}
