package scenario

import "sort"

// Technologies names the share indices used by the shipped scenarios.
var Technologies = []string{"fossil", "nuclear", "wind", "solar", "hydro"}

// X0Spain is the initial Spanish electricity mix (fossil, nuclear,
// wind, solar, hydro).
var X0Spain = []float64{0.038, 0.256, 0.244, 0.295, 0.167}

// rSpain weights each technology's growth by resource efficiency.
var rSpain = []float64{1.0, 1.0, 0.9, 0.9, 0.6}

var presets = map[string]*Scenario{
	"baseline": {
		Name:        "baseline",
		Description: "current mix, status quo growth rates",
		X0:          X0Spain,
		R:           rSpain,
		G:           []float64{0.02, 0.015, 0.03, 0.035, 0.01},
		T0:          DefaultT0,
		TEnd:        DefaultTEnd,
		Dt:          DefaultDt,
	},
	"renewable": {
		Name:        "renewable",
		Description: "policy support boosts wind and solar growth",
		X0:          X0Spain,
		R:           rSpain,
		G:           []float64{0.01, 0.015, 0.05, 0.06, 0.01},
		T0:          DefaultT0,
		TEnd:        DefaultTEnd,
		Dt:          DefaultDt,
	},
	"nuclear-phaseout": {
		Name:        "nuclear-phaseout",
		Description: "nuclear growth turns negative after t=40",
		X0:          X0Spain,
		R:           rSpain,
		G:           []float64{0.02, 0.015, 0.03, 0.035, 0.01},
		GAfter:      []float64{0.02, -0.03, 0.035, 0.04, 0.01},
		SwitchTime:  40.0,
		T0:          DefaultT0,
		TEnd:        DefaultTEnd,
		Dt:          DefaultDt,
	},
}

// Get returns a copy of the named preset, or nil if unknown. The copy
// keeps callers from mutating the shared table.
func Get(name string) *Scenario {
	sc, ok := presets[name]
	if !ok {
		return nil
	}
	c := *sc
	c.X0 = append([]float64(nil), sc.X0...)
	c.R = append([]float64(nil), sc.R...)
	c.G = append([]float64(nil), sc.G...)
	c.GAfter = append([]float64(nil), sc.GAfter...)
	return &c
}

// List returns the preset names in stable order.
func List() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns copies of every preset, in List order.
func All() []*Scenario {
	names := List()
	out := make([]*Scenario, len(names))
	for i, name := range names {
		out[i] = Get(name)
	}
	return out
}
