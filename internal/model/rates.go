package model

import (
	"fmt"
	"math"
)

// RateExpr is a declarative rate law. Expressions are data so that model
// variants can be toggled by configuration instead of code edits; they are
// bound to concrete parameter values only when a solve starts.
type RateExpr interface {
	// Kind identifies the expression form for encoding.
	Kind() string
	// paramRefs lists every parameter symbol the expression reads.
	paramRefs() []string
	// speciesRefs lists every species symbol the expression reads beyond
	// the reactant terms of its reaction.
	speciesRefs() []string
}

// MassAction is the standard kinetic rate law: a rate constant times the
// product of the reactant quantities raised to their coefficients.
//
// The stochastic interpretation uses the same simple multiplication of
// counts rather than falling-factorial combinatorics; that convention is
// part of the model contract and must not be changed.
type MassAction struct {
	Rate string `json:"rate" yaml:"rate"`
}

func (MassAction) Kind() string          { return "mass_action" }
func (m MassAction) paramRefs() []string { return []string{m.Rate} }
func (MassAction) speciesRefs() []string { return nil }

// Hill is a saturating sigmoid of a single driving input:
//
//	min + (max - min) * x^n / (half^n + x^n)
//
// All five fields name declared parameters, except Input which may name
// either a parameter (an externally tunable inducer level) or a species.
// At x = 0 the expression is exactly Min; half^n is strictly positive
// whenever Half > 0, so there is no division by zero.
type Hill struct {
	Input string `json:"input" yaml:"input"`
	Min   string `json:"min" yaml:"min"`
	Max   string `json:"max" yaml:"max"`
	Half  string `json:"half" yaml:"half"`
	Exp   string `json:"exp" yaml:"exp"`
}

func (Hill) Kind() string { return "hill" }

func (h Hill) paramRefs() []string {
	return []string{h.Min, h.Max, h.Half, h.Exp}
}

func (h Hill) speciesRefs() []string {
	// Input is resolved against species first, then parameters; the
	// builder validates that it is declared as exactly one of the two.
	return nil
}

// HillValue evaluates the Hill form at input x with a precomputed
// denominator base cn = half^n.
func HillValue(x, min, max, cn, n float64) float64 {
	if x <= 0 {
		return min
	}
	xn := math.Pow(x, n)
	return min + (max-min)*xn/(cn+xn)
}

// RateFunc compiles the rate expression of reaction i under the bound
// parameter assignment into a flux function over a state vector in species
// order. The returned function is pure and safe for concurrent use.
func (n *Network) RateFunc(i int, bound Params) (func(x []float64) float64, error) {
	r := n.reactions[i]
	switch expr := r.Rate.(type) {
	case MassAction:
		k, ok := bound[expr.Rate]
		if !ok {
			return nil, unknownSymbol("rate constant", expr.Rate)
		}
		type factor struct {
			idx   int
			coeff int
		}
		factors := make([]factor, 0, len(r.Reactants))
		for _, t := range r.Reactants {
			factors = append(factors, factor{idx: n.index[t.Species], coeff: t.Coeff})
		}
		return func(x []float64) float64 {
			flux := k
			for _, f := range factors {
				for c := 0; c < f.coeff; c++ {
					flux *= x[f.idx]
				}
			}
			return flux
		}, nil
	case Hill:
		min, ok := bound[expr.Min]
		if !ok {
			return nil, unknownSymbol("hill min", expr.Min)
		}
		max, ok := bound[expr.Max]
		if !ok {
			return nil, unknownSymbol("hill max", expr.Max)
		}
		half, ok := bound[expr.Half]
		if !ok {
			return nil, unknownSymbol("hill half-max", expr.Half)
		}
		exp, ok := bound[expr.Exp]
		if !ok {
			return nil, unknownSymbol("hill exponent", expr.Exp)
		}
		cn := math.Pow(half, exp)
		if idx, ok := n.index[expr.Input]; ok {
			return func(x []float64) float64 {
				return HillValue(x[idx], min, max, cn, exp)
			}, nil
		}
		input, ok := bound[expr.Input]
		if !ok {
			return nil, unknownSymbol("hill input", expr.Input)
		}
		value := HillValue(input, min, max, cn, exp)
		return func([]float64) float64 { return value }, nil
	default:
		return nil, fmt.Errorf("reaction %s: unsupported rate expression %T", r.Name, r.Rate)
	}
}
