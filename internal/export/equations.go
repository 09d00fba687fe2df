package export

import (
	"fmt"
	"strings"

	"kinetikos/internal/model"
)

// Reactions renders the reaction list as chemical notation, one reaction
// per line, with the rate law in brackets.
func Reactions(net *model.Network) string {
	var sb strings.Builder
	for _, r := range net.Reactions() {
		fmt.Fprintf(&sb, "%s: %s -> %s  [%s]\n",
			r.Name, sideString(r.Reactants), sideString(r.Products), rateString(r.Rate))
	}
	return sb.String()
}

func sideString(terms []model.Term) string {
	if len(terms) == 0 {
		return "0"
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		if t.Coeff == 1 {
			parts[i] = t.Species
		} else {
			parts[i] = fmt.Sprintf("%d %s", t.Coeff, t.Species)
		}
	}
	return strings.Join(parts, " + ")
}

func rateString(expr model.RateExpr) string {
	switch e := expr.(type) {
	case model.MassAction:
		return e.Rate
	case model.Hill:
		return fmt.Sprintf("%s + (%s - %s) * %s^%s / (%s^%s + %s^%s)",
			e.Min, e.Max, e.Min, e.Input, e.Exp, e.Half, e.Exp, e.Input, e.Exp)
	default:
		return fmt.Sprintf("%T", expr)
	}
}

// LaTeX renders the ODE system as an aligned equation block, one
// d[species]/dt line per species.
func LaTeX(net *model.Network) string {
	var sb strings.Builder
	sb.WriteString("\\begin{align}\n")
	reactions := net.Reactions()
	for i, s := range net.Species() {
		fmt.Fprintf(&sb, "\\frac{d[%s]}{dt} &= ", texName(s.Name))
		wrote := false
		for j, r := range reactions {
			coeff := net.Delta(j)[i]
			if coeff == 0 {
				continue
			}
			term := texRate(r)
			switch {
			case !wrote && coeff == 1:
				sb.WriteString(term)
			case !wrote && coeff == -1:
				sb.WriteString("- " + term)
			case !wrote:
				fmt.Fprintf(&sb, "%d \\, %s", coeff, term)
			case coeff == 1:
				sb.WriteString(" + " + term)
			case coeff == -1:
				sb.WriteString(" - " + term)
			case coeff > 0:
				fmt.Fprintf(&sb, " + %d \\, %s", coeff, term)
			default:
				fmt.Fprintf(&sb, " - %d \\, %s", -coeff, term)
			}
			wrote = true
		}
		if !wrote {
			sb.WriteString("0")
		}
		if i < net.NumSpecies()-1 {
			sb.WriteString(" \\\\")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\\end{align}\n")
	return sb.String()
}

func texRate(r model.Reaction) string {
	switch e := r.Rate.(type) {
	case model.MassAction:
		parts := []string{texName(e.Rate)}
		for _, t := range r.Reactants {
			for c := 0; c < t.Coeff; c++ {
				parts = append(parts, "[" + texName(t.Species) + "]")
			}
		}
		return strings.Join(parts, " \\cdot ")
	case model.Hill:
		return fmt.Sprintf("\\left(%s + (%s - %s) \\frac{%s^{%s}}{%s^{%s} + %s^{%s}}\\right)",
			texName(e.Min), texName(e.Max), texName(e.Min),
			texName(e.Input), texName(e.Exp),
			texName(e.Half), texName(e.Exp),
			texName(e.Input), texName(e.Exp))
	default:
		return texName(r.Name)
	}
}

func texName(name string) string {
	return strings.ReplaceAll(name, "_", "\\_")
}
