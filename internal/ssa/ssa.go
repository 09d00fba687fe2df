// Package ssa samples trajectories of a reaction-network CTMC with the
// Gillespie direct method: exponential holding times with rate equal to the
// total propensity, next transition chosen proportionally to its
// propensity, one firing applied per jump.
package ssa

import (
	"fmt"
	"math/rand"

	"kinetikos/internal/ctmc"
)

// Config bounds one trajectory.
type Config struct {
	// Horizon is the simulated end time.
	Horizon float64
	// SampleInterval is the fixed recording cadence.
	SampleInterval float64
	// MaxEvents, if > 0, caps the number of firings.
	MaxEvents int
	// Seed fixes the random source; trajectories are deterministic under
	// a fixed seed.
	Seed int64
}

// Result is one sampled trajectory. Absorbed marks a trajectory that hit a
// state with no enabled transition before the horizon; that is a terminal
// condition, not a failure.
type Result struct {
	Times  []float64
	Values [][]float64
	Final  ctmc.State

	Events    int
	FinalTime float64
	Absorbed  bool
}

// Run samples a single trajectory from the given initial state.
func Run(chain *ctmc.Chain, initial ctmc.State, cfg Config) (*Result, error) {
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %v", cfg.Horizon)
	}
	if cfg.SampleInterval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", cfg.SampleInterval)
	}
	if len(initial) != chain.Network().NumSpecies() {
		return nil, fmt.Errorf("initial state has %d species, network has %d",
			len(initial), chain.Network().NumSpecies())
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	state := initial.Clone()
	res := &Result{}

	record := func(t float64) {
		row := make([]float64, len(state))
		for i, v := range state {
			row[i] = float64(v)
		}
		res.Times = append(res.Times, t)
		res.Values = append(res.Values, row)
	}

	t := 0.0
	nextSample := 0.0

	for {
		enabled := chain.Enabled(state)
		if len(enabled) == 0 {
			// Absorbing state: the chain can no longer evolve, so the
			// remaining sample points all see the same state.
			for nextSample <= cfg.Horizon {
				record(nextSample)
				nextSample += cfg.SampleInterval
			}
			res.Absorbed = true
			t = cfg.Horizon
			break
		}

		total := 0.0
		for _, e := range enabled {
			total += e.Propensity
		}
		jump := t + rng.ExpFloat64()/total

		// The state is constant over the holding time; sample points that
		// fall inside it see the pre-jump state.
		for nextSample <= cfg.Horizon && nextSample < jump {
			record(nextSample)
			nextSample += cfg.SampleInterval
		}
		if jump > cfg.Horizon {
			t = cfg.Horizon
			break
		}

		u := rng.Float64() * total
		chosen := enabled[len(enabled)-1].Transition
		acc := 0.0
		for _, e := range enabled {
			acc += e.Propensity
			if u < acc {
				chosen = e.Transition
				break
			}
		}
		chosen.Apply(state)
		t = jump
		res.Events++

		if cfg.MaxEvents > 0 && res.Events >= cfg.MaxEvents {
			break
		}
	}

	res.Final = state
	res.FinalTime = t
	return res, nil
}

// RunEnsemble samples n independent trajectories, seeding replicate i with
// cfg.Seed + i.
func RunEnsemble(chain *ctmc.Chain, initial ctmc.State, cfg Config, n int) ([]*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("replicate count must be positive, got %d", n)
	}
	out := make([]*Result, n)
	for i := 0; i < n; i++ {
		replicate := cfg
		replicate.Seed = cfg.Seed + int64(i)
		res, err := Run(chain, initial, replicate)
		if err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}
