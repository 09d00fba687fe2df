// Package modeldef reads and writes the declarative model definition: a
// YAML document with ordered parameter, species, and reaction sections.
// Decoding runs through the network builder, so every definition gets the
// same validation as models declared in code.
package modeldef

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"kinetikos/internal/model"
)

type paramDoc struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

type speciesDoc struct {
	Name    string  `yaml:"name"`
	Initial float64 `yaml:"initial"`
}

type termDoc struct {
	Species string `yaml:"species"`
	Coeff   int    `yaml:"coeff,omitempty"`
}

type massActionDoc struct {
	Rate string `yaml:"rate"`
}

type hillDoc struct {
	Input string `yaml:"input"`
	Min   string `yaml:"min"`
	Max   string `yaml:"max"`
	Half  string `yaml:"half"`
	Exp   string `yaml:"exp"`
}

type rateDoc struct {
	MassAction *massActionDoc `yaml:"mass_action,omitempty"`
	Hill       *hillDoc       `yaml:"hill,omitempty"`
}

type reactionDoc struct {
	Name    string    `yaml:"name"`
	Consume []termDoc `yaml:"consume,omitempty"`
	Produce []termDoc `yaml:"produce,omitempty"`
	Rate    rateDoc   `yaml:"rate"`
}

type networkDoc struct {
	Name      string        `yaml:"name,omitempty"`
	Params    []paramDoc    `yaml:"params"`
	Species   []speciesDoc  `yaml:"species"`
	Reactions []reactionDoc `yaml:"reactions"`
}

// Decode parses a model definition and builds the validated network.
func Decode(r io.Reader) (*model.Network, error) {
	var doc networkDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model definition: %w", err)
	}

	b := model.NewNetwork()
	for _, p := range doc.Params {
		b.Param(p.Name, p.Value)
	}
	for _, s := range doc.Species {
		b.Species(s.Name, s.Initial)
	}
	for _, r := range doc.Reactions {
		rate, err := decodeRate(r.Name, r.Rate)
		if err != nil {
			return nil, err
		}
		b.Reaction(r.Name, decodeTerms(r.Consume), decodeTerms(r.Produce), rate)
	}
	net, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("model definition: %w", err)
	}
	return net, nil
}

func decodeTerms(docs []termDoc) []model.Term {
	if len(docs) == 0 {
		return nil
	}
	terms := make([]model.Term, len(docs))
	for i, d := range docs {
		coeff := d.Coeff
		if coeff == 0 {
			// Omitted coefficient means one unit; a literal zero-unit
			// term would be meaningless.
			coeff = 1
		}
		terms[i] = model.Term{Species: d.Species, Coeff: coeff}
	}
	return terms
}

func decodeRate(reaction string, doc rateDoc) (model.RateExpr, error) {
	switch {
	case doc.MassAction != nil && doc.Hill != nil:
		return nil, fmt.Errorf("reaction %s: rate declares both mass_action and hill", reaction)
	case doc.MassAction != nil:
		return model.MassAction{Rate: doc.MassAction.Rate}, nil
	case doc.Hill != nil:
		return model.Hill{
			Input: doc.Hill.Input,
			Min:   doc.Hill.Min,
			Max:   doc.Hill.Max,
			Half:  doc.Hill.Half,
			Exp:   doc.Hill.Exp,
		}, nil
	default:
		return nil, fmt.Errorf("reaction %s: rate is required", reaction)
	}
}

// Encode renders a network back to the wire format, preserving declaration
// order.
func Encode(w io.Writer, name string, net *model.Network) error {
	doc := networkDoc{Name: name}
	for _, p := range net.Params() {
		doc.Params = append(doc.Params, paramDoc(p))
	}
	for _, s := range net.Species() {
		doc.Species = append(doc.Species, speciesDoc{Name: s.Name, Initial: s.Initial})
	}
	for _, r := range net.Reactions() {
		rd := reactionDoc{
			Name:    r.Name,
			Consume: encodeTerms(r.Reactants),
			Produce: encodeTerms(r.Products),
		}
		switch expr := r.Rate.(type) {
		case model.MassAction:
			rd.Rate.MassAction = &massActionDoc{Rate: expr.Rate}
		case model.Hill:
			rd.Rate.Hill = &hillDoc{
				Input: expr.Input,
				Min:   expr.Min,
				Max:   expr.Max,
				Half:  expr.Half,
				Exp:   expr.Exp,
			}
		default:
			return fmt.Errorf("reaction %s: unsupported rate expression %T", r.Name, r.Rate)
		}
		doc.Reactions = append(doc.Reactions, rd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode model definition: %w", err)
	}
	return enc.Close()
}

func encodeTerms(terms []model.Term) []termDoc {
	if len(terms) == 0 {
		return nil
	}
	docs := make([]termDoc, len(terms))
	for i, t := range terms {
		docs[i] = termDoc(t)
	}
	return docs
}
