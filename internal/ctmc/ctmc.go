// Package ctmc generates the transition structure of a continuous-time
// Markov chain from a reaction network over integer species counts. Each
// reaction becomes a transition with an integer update vector, elementwise
// enabling bounds derived from its reactant coefficients, and a propensity
// function over the current state.
package ctmc

import (
	"fmt"

	"kinetikos/internal/model"
)

// State is a vector of species counts in declared species order.
type State []int64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) floats() []float64 {
	x := make([]float64, len(s))
	for i, v := range s {
		x[i] = float64(v)
	}
	return x
}

// Transition is one reaction of the chain: fire it by adding Delta to the
// state. A transition is enabled iff the state is elementwise at or above
// its bounds, so a reactant with coefficient k requires a count of at
// least k.
type Transition struct {
	Index  int
	Name   string
	Delta  []int
	bounds []int
	rate   func(x []float64) float64
}

func (tr *Transition) Enabled(state State) bool {
	for i, b := range tr.bounds {
		if state[i] < int64(b) {
			return false
		}
	}
	return true
}

// Propensity evaluates the rate expression over the integer state. For
// mass-action reactions this is the rate constant times the simple product
// of reactant counts (counts treated as independent draws, not sampling
// without replacement). Disabled transitions have zero propensity.
func (tr *Transition) Propensity(state State) float64 {
	if !tr.Enabled(state) {
		return 0
	}
	return tr.rate(state.floats())
}

// Apply fires the transition in place: one coefficient-scaled
// increment/decrement per species.
func (tr *Transition) Apply(state State) {
	for i, d := range tr.Delta {
		state[i] += int64(d)
	}
}

// Next returns the successor state without mutating the input, or nil if
// the transition is not enabled.
func (tr *Transition) Next(state State) State {
	if !tr.Enabled(state) {
		return nil
	}
	next := state.Clone()
	tr.Apply(next)
	return next
}

// Enabled pairs a transition with its propensity in one state.
type Enabled struct {
	Transition *Transition
	Propensity float64
}

// Chain is the compiled transition structure. It holds no mutable state;
// independent trajectories may share one Chain.
type Chain struct {
	net         *model.Network
	transitions []Transition
}

// Generate compiles every reaction under the bound parameters. Validation
// errors abort generation; nothing partially built is returned.
func Generate(net *model.Network, bound model.Params) (*Chain, error) {
	c := &Chain{
		net:         net,
		transitions: make([]Transition, net.NumReactions()),
	}
	reactions := net.Reactions()
	for i := range reactions {
		rate, err := net.RateFunc(i, bound)
		if err != nil {
			return nil, fmt.Errorf("generate transition %s: %w", reactions[i].Name, err)
		}
		c.transitions[i] = Transition{
			Index:  i,
			Name:   reactions[i].Name,
			Delta:  net.Delta(i),
			bounds: net.ReactantBounds(i),
			rate:   rate,
		}
	}
	return c, nil
}

func (c *Chain) Network() *model.Network {
	return c.net
}

// Initial returns the declared initial counts.
func (c *Chain) Initial() State {
	return State(c.net.InitialCounts())
}

// Transitions returns the full transition list in declared reaction order.
func (c *Chain) Transitions() []*Transition {
	out := make([]*Transition, len(c.transitions))
	for i := range c.transitions {
		out[i] = &c.transitions[i]
	}
	return out
}

// Transition returns the transition at reaction index i.
func (c *Chain) Transition(i int) *Transition {
	return &c.transitions[i]
}

// Enabled returns the currently enabled transitions with their
// propensities, in stable reaction order. An empty result marks an
// absorbing state; that is a terminal condition for the caller, not an
// error.
func (c *Chain) Enabled(state State) []Enabled {
	x := state.floats()
	var out []Enabled
	for i := range c.transitions {
		tr := &c.transitions[i]
		if !tr.Enabled(state) {
			continue
		}
		out = append(out, Enabled{Transition: tr, Propensity: tr.rate(x)})
	}
	return out
}

// Absorbing reports whether no transition is enabled in the given state.
func (c *Chain) Absorbing(state State) bool {
	for i := range c.transitions {
		if c.transitions[i].Enabled(state) {
			return false
		}
	}
	return true
}
