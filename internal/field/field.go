// Package field compiles a reaction network into the right-hand side of a
// deterministic ODE system: dx/dt = f(t, x) by stoichiometric bookkeeping
// over per-reaction fluxes.
package field

import (
	"fmt"

	"kinetikos/internal/model"
)

// Field is a compiled, immutable vector field over a reaction network. It
// holds no mutable state; Derivatives may be called concurrently by
// independent integrations.
type Field struct {
	net     *model.Network
	rates   []func(x []float64) float64
	deltas  [][]int
	initial []float64
}

// Compile evaluates every rate expression against the bound parameters and
// fixes the net stoichiometry of each reaction. The parameter assignment is
// captured at compile time; recompile to change it.
func Compile(net *model.Network, bound model.Params) (*Field, error) {
	nr := net.NumReactions()
	f := &Field{
		net:     net,
		rates:   make([]func([]float64) float64, nr),
		deltas:  make([][]int, nr),
		initial: net.InitialVector(),
	}
	for i := 0; i < nr; i++ {
		rate, err := net.RateFunc(i, bound)
		if err != nil {
			return nil, fmt.Errorf("compile reaction %s: %w", net.Reactions()[i].Name, err)
		}
		f.rates[i] = rate
		f.deltas[i] = net.Delta(i)
	}
	return f, nil
}

// Dim is the number of species, the dimension of the state vector.
func (f *Field) Dim() int {
	return len(f.initial)
}

// Initial returns the declared initial condition in species order.
func (f *Field) Initial() []float64 {
	x := make([]float64, len(f.initial))
	copy(x, f.initial)
	return x
}

// Network returns the network this field was compiled from.
func (f *Field) Network() *model.Network {
	return f.net
}

// Fluxes evaluates every reaction rate at state x, in reaction order.
func (f *Field) Fluxes(x []float64) []float64 {
	out := make([]float64, len(f.rates))
	for i, rate := range f.rates {
		out[i] = rate(x)
	}
	return out
}

// Derivatives writes dx/dt at (t, x) into dx. Each species accumulates the
// sum over reactions of its net coefficient times the reaction flux. The
// system is autonomous; t is accepted for the integrator boundary only.
func (f *Field) Derivatives(t float64, x, dx []float64) {
	_ = t
	for i := range dx {
		dx[i] = 0
	}
	for j, rate := range f.rates {
		flux := rate(x)
		if flux == 0 {
			continue
		}
		for i, d := range f.deltas[j] {
			if d != 0 {
				dx[i] += float64(d) * flux
			}
		}
	}
}
