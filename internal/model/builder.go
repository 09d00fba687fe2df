package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSymbol reports a reaction or rate expression referencing a
	// symbol that was never declared.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrNegativeStoichiometry reports a reaction term with a negative
	// coefficient.
	ErrNegativeStoichiometry = errors.New("negative stoichiometry")
	// ErrDuplicateSymbol reports a species or parameter declared twice, or
	// one name declared as both.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
)

func unknownSymbol(context, name string) error {
	return fmt.Errorf("%s %q: %w", context, name, ErrUnknownSymbol)
}

// NetworkBuilder accumulates typed declarations and validates them once at
// Build. Declaration order is preserved: it fixes the presentation order of
// equations and the index order of state vectors, nothing else.
type NetworkBuilder struct {
	species   []Species
	params    []Param
	reactions []Reaction
}

func NewNetwork() *NetworkBuilder {
	return &NetworkBuilder{}
}

func (b *NetworkBuilder) Param(name string, value float64) *NetworkBuilder {
	b.params = append(b.params, Param{Name: name, Value: value})
	return b
}

func (b *NetworkBuilder) Species(name string, initial float64) *NetworkBuilder {
	b.species = append(b.species, Species{Name: name, Initial: initial})
	return b
}

func (b *NetworkBuilder) Reaction(name string, reactants, products []Term, rate RateExpr) *NetworkBuilder {
	b.reactions = append(b.reactions, Reaction{
		Name:      name,
		Reactants: reactants,
		Products:  products,
		Rate:      rate,
	})
	return b
}

// Build validates the accumulated declarations and returns the immutable
// network. All model-definition errors are reported here; nothing partially
// built escapes.
func (b *NetworkBuilder) Build() (*Network, error) {
	n := &Network{
		species:   append([]Species(nil), b.species...),
		params:    append([]Param(nil), b.params...),
		reactions: append([]Reaction(nil), b.reactions...),
		index:     make(map[string]int, len(b.species)),
		paramIdx:  make(map[string]int, len(b.params)),
	}

	for i, s := range n.species {
		if s.Name == "" {
			return nil, fmt.Errorf("species %d: name is required", i)
		}
		if _, dup := n.index[s.Name]; dup {
			return nil, fmt.Errorf("species %q: %w", s.Name, ErrDuplicateSymbol)
		}
		if s.Initial < 0 {
			return nil, fmt.Errorf("species %q: initial value %v is negative", s.Name, s.Initial)
		}
		n.index[s.Name] = i
	}
	for i, p := range n.params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter %d: name is required", i)
		}
		if _, dup := n.paramIdx[p.Name]; dup {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, ErrDuplicateSymbol)
		}
		if _, dup := n.index[p.Name]; dup {
			return nil, fmt.Errorf("parameter %q shadows a species: %w", p.Name, ErrDuplicateSymbol)
		}
		n.paramIdx[p.Name] = i
	}

	for _, r := range n.reactions {
		if r.Name == "" {
			return nil, errors.New("reaction name is required")
		}
		if r.Rate == nil {
			return nil, fmt.Errorf("reaction %s: rate expression is required", r.Name)
		}
		if err := n.checkTerms(r.Name, "reactant", r.Reactants); err != nil {
			return nil, err
		}
		if err := n.checkTerms(r.Name, "product", r.Products); err != nil {
			return nil, err
		}
		for _, ref := range r.Rate.paramRefs() {
			if _, ok := n.paramIdx[ref]; !ok {
				return nil, fmt.Errorf("reaction %s: %w", r.Name, unknownSymbol("parameter", ref))
			}
		}
		for _, ref := range r.Rate.speciesRefs() {
			if _, ok := n.index[ref]; !ok {
				return nil, fmt.Errorf("reaction %s: %w", r.Name, unknownSymbol("species", ref))
			}
		}
		if h, ok := r.Rate.(Hill); ok {
			_, isSpecies := n.index[h.Input]
			_, isParam := n.paramIdx[h.Input]
			if !isSpecies && !isParam {
				return nil, fmt.Errorf("reaction %s: %w", r.Name, unknownSymbol("hill input", h.Input))
			}
		}
	}

	return n, nil
}

func (n *Network) checkTerms(reaction, role string, terms []Term) error {
	for _, t := range terms {
		if _, ok := n.index[t.Species]; !ok {
			return fmt.Errorf("reaction %s: %w", reaction, unknownSymbol(role, t.Species))
		}
		if t.Coeff < 0 {
			return fmt.Errorf("reaction %s: %s %s has coefficient %d: %w",
				reaction, role, t.Species, t.Coeff, ErrNegativeStoichiometry)
		}
	}
	return nil
}
