package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Species is a named, non-negative quantity: a continuous concentration in
// deterministic mode, an integer count in stochastic mode.
type Species struct {
	Name    string  `json:"name"`
	Initial float64 `json:"initial"`
}

// Param is a named scalar constant. Values may be overridden between solver
// runs without rebuilding the network.
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Term pairs a species with a stoichiometric coefficient.
type Term struct {
	Species string `json:"species"`
	Coeff   int    `json:"coeff"`
}

// Reaction consumes its reactant terms and produces its product terms at the
// rate given by its rate expression. A species appearing on both sides nets
// its coefficient.
type Reaction struct {
	Name      string   `json:"name"`
	Reactants []Term   `json:"reactants"`
	Products  []Term   `json:"products"`
	Rate      RateExpr `json:"rate"`
}

// Params binds parameter names to values for one solver run.
type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Network is an immutable, validated reaction network: ordered species,
// ordered parameters, ordered reactions. Construct one with NetworkBuilder.
type Network struct {
	species   []Species
	params    []Param
	reactions []Reaction
	index     map[string]int
	paramIdx  map[string]int
}

func (n *Network) Species() []Species {
	out := make([]Species, len(n.species))
	copy(out, n.species)
	return out
}

func (n *Network) Params() []Param {
	out := make([]Param, len(n.params))
	copy(out, n.params)
	return out
}

func (n *Network) Reactions() []Reaction {
	out := make([]Reaction, len(n.reactions))
	copy(out, n.reactions)
	return out
}

func (n *Network) NumSpecies() int {
	return len(n.species)
}

func (n *Network) NumReactions() int {
	return len(n.reactions)
}

// SpeciesIndex reports the position of a species in the declared order.
func (n *Network) SpeciesIndex(name string) (int, bool) {
	i, ok := n.index[name]
	return i, ok
}

func (n *Network) SpeciesNames() []string {
	names := make([]string, len(n.species))
	for i, s := range n.species {
		names[i] = s.Name
	}
	return names
}

// InitialVector returns the declared initial values in species order.
func (n *Network) InitialVector() []float64 {
	x := make([]float64, len(n.species))
	for i, s := range n.species {
		x[i] = s.Initial
	}
	return x
}

// InitialCounts returns the declared initial values truncated to integer
// counts, for the stochastic interpretation of the network.
func (n *Network) InitialCounts() []int64 {
	x := make([]int64, len(n.species))
	for i, s := range n.species {
		x[i] = int64(s.Initial)
	}
	return x
}

// Delta returns the net stoichiometric change of reaction i across all
// species: products minus reactants, in species order.
func (n *Network) Delta(i int) []int {
	d := make([]int, len(n.species))
	r := n.reactions[i]
	for _, t := range r.Reactants {
		d[n.index[t.Species]] -= t.Coeff
	}
	for _, t := range r.Products {
		d[n.index[t.Species]] += t.Coeff
	}
	return d
}

// ReactantBounds returns the per-species count reaction i consumes; a state
// enables the reaction iff it is elementwise at or above these bounds.
func (n *Network) ReactantBounds(i int) []int {
	b := make([]int, len(n.species))
	for _, t := range n.reactions[i].Reactants {
		b[n.index[t.Species]] += t.Coeff
	}
	return b
}

// Bind resolves the parameter assignment for a run: declared defaults with
// the given overrides applied on top. Overriding an undeclared parameter is
// an UnknownSymbol error.
func (n *Network) Bind(overrides Params) (Params, error) {
	bound := make(Params, len(n.params))
	for _, p := range n.params {
		bound[p.Name] = p.Value
	}
	for name, value := range overrides {
		if _, ok := n.paramIdx[name]; !ok {
			return nil, unknownSymbol("parameter override", name)
		}
		bound[name] = value
	}
	return bound, nil
}
