// Package circuit defines the two-stage CRISPRi cascade: an inducible
// dCas9 stage, a guide-RNA stage, reversible operator occupancy by the
// dCas9:guide complex, and a repressed output gene. The reaction list is
// data; pathway variants toggle by option, not by editing reactions.
package circuit

import (
	"kinetikos/internal/ctmc"
	"kinetikos/internal/field"
	"kinetikos/internal/model"
)

// ModelName identifies the bundled model in run records.
const ModelName = "crispri-cascade"

// Two-phase induction protocol: settle without inducer, then induce and
// follow the response at a fixed cadence.
const (
	SampleInterval = 60
	Horizon        = 216000
)

// Option toggles a pathway variant of the base network.
type Option func(*model.NetworkBuilder)

// WithCompetingGuide adds a second guide RNA that competes with g_An for
// free dCas9 and for the operator site.
func WithCompetingGuide() Option {
	return func(b *model.NetworkBuilder) {
		b.Param("k_gB", 0.0005).
			Species("g_Bn", 0).
			Species("c_Bn", 0).
			Species("C_A_Bn", 0).
			Reaction("transcribe_guide_b",
				nil,
				[]model.Term{{Species: "g_Bn", Coeff: 1}},
				model.MassAction{Rate: "k_gB"}).
			Reaction("degrade_guide_b",
				[]model.Term{{Species: "g_Bn", Coeff: 1}},
				nil,
				model.MassAction{Rate: "k_dg"}).
			Reaction("complex_formation_b",
				[]model.Term{{Species: "d", Coeff: 1}, {Species: "g_Bn", Coeff: 1}},
				[]model.Term{{Species: "c_Bn", Coeff: 1}},
				model.MassAction{Rate: "k_crF"}).
			Reaction("degrade_complex_b",
				[]model.Term{{Species: "c_Bn", Coeff: 1}},
				nil,
				model.MassAction{Rate: "k_dc"}).
			Reaction("competitor_binding",
				[]model.Term{{Species: "c_Bn", Coeff: 1}, {Species: "D_A", Coeff: 1}},
				[]model.Term{{Species: "C_A_Bn", Coeff: 1}},
				model.MassAction{Rate: "k_bF"}).
			Reaction("competitor_release",
				[]model.Term{{Species: "C_A_Bn", Coeff: 1}},
				[]model.Term{{Species: "c_Bn", Coeff: 1}, {Species: "D_A", Coeff: 1}},
				model.MassAction{Rate: "k_bR"})
	}
}

// Network builds the validated cascade. The same definition backs both the
// deterministic and the stochastic interpretation, so the two stay
// semantically identical by construction.
func Network(opts ...Option) (*model.Network, error) {
	b := model.NewNetwork().
		// Inducer levels, overridden by the induction protocol.
		Param("IPTG", 0).
		Param("aTc", 0).
		// pTac transcription bounds (IPTG-responsive sigmoid).
		Param("dtac_min", 0.0000409).
		Param("dtac_max", 0.0214).
		Param("dtac_half", 72).
		Param("dtac_n", 2).
		// pTet transcription bounds (aTc-responsive sigmoid).
		Param("dtet_min", 0.0000931).
		Param("dtet_max", 0.046).
		Param("dtet_half", 13).
		Param("dtet_n", 2).
		Param("k_dm", 0.00288).
		Param("k_tl", 0.02).
		Param("k_dp", 0.000556).
		Param("k_dg", 0.00231).
		Param("k_crF", 0.001848).
		Param("k_dc", 0.000556).
		Param("k_bF", 0.01).
		Param("k_bR", 0.001).
		Param("k_tx", 0.012).
		Species("m_d", 10).
		Species("d", 1222).
		Species("g_An", 2).
		Species("c_An", 0).
		Species("D_A", 10).
		Species("C_A_An", 0).
		Species("m_y", 0).
		Species("y", 0).
		Reaction("transcribe_dcas",
			nil,
			[]model.Term{{Species: "m_d", Coeff: 1}},
			model.Hill{Input: "IPTG", Min: "dtac_min", Max: "dtac_max", Half: "dtac_half", Exp: "dtac_n"}).
		Reaction("degrade_dcas_mrna",
			[]model.Term{{Species: "m_d", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_dm"}).
		Reaction("translate_dcas",
			[]model.Term{{Species: "m_d", Coeff: 1}},
			[]model.Term{{Species: "m_d", Coeff: 1}, {Species: "d", Coeff: 1}},
			model.MassAction{Rate: "k_tl"}).
		Reaction("degrade_dcas",
			[]model.Term{{Species: "d", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_dp"}).
		Reaction("transcribe_guide",
			nil,
			[]model.Term{{Species: "g_An", Coeff: 1}},
			model.Hill{Input: "aTc", Min: "dtet_min", Max: "dtet_max", Half: "dtet_half", Exp: "dtet_n"}).
		Reaction("degrade_guide",
			[]model.Term{{Species: "g_An", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_dg"}).
		Reaction("complex_formation",
			[]model.Term{{Species: "d", Coeff: 1}, {Species: "g_An", Coeff: 1}},
			[]model.Term{{Species: "c_An", Coeff: 1}},
			model.MassAction{Rate: "k_crF"}).
		Reaction("degrade_complex",
			[]model.Term{{Species: "c_An", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_dc"}).
		Reaction("operator_binding",
			[]model.Term{{Species: "c_An", Coeff: 1}, {Species: "D_A", Coeff: 1}},
			[]model.Term{{Species: "C_A_An", Coeff: 1}},
			model.MassAction{Rate: "k_bF"}).
		Reaction("operator_release",
			[]model.Term{{Species: "C_A_An", Coeff: 1}},
			[]model.Term{{Species: "c_An", Coeff: 1}, {Species: "D_A", Coeff: 1}},
			model.MassAction{Rate: "k_bR"}).
		Reaction("transcribe_output",
			[]model.Term{{Species: "D_A", Coeff: 1}},
			[]model.Term{{Species: "D_A", Coeff: 1}, {Species: "m_y", Coeff: 1}},
			model.MassAction{Rate: "k_tx"}).
		Reaction("degrade_output_mrna",
			[]model.Term{{Species: "m_y", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_dm"}).
		Reaction("translate_output",
			[]model.Term{{Species: "m_y", Coeff: 1}},
			[]model.Term{{Species: "m_y", Coeff: 1}, {Species: "y", Coeff: 1}},
			model.MassAction{Rate: "k_tl"}).
		Reaction("degrade_output",
			[]model.Term{{Species: "y", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_dp"})

	for _, opt := range opts {
		opt(b)
	}
	return b.Build()
}

// Deterministic compiles the cascade's continuous interpretation under the
// given parameter overrides.
func Deterministic(overrides model.Params, opts ...Option) (*field.Field, error) {
	net, err := Network(opts...)
	if err != nil {
		return nil, err
	}
	bound, err := net.Bind(overrides)
	if err != nil {
		return nil, err
	}
	return field.Compile(net, bound)
}

// Stochastic generates the cascade's integer-count interpretation under the
// given parameter overrides. Both interpretations read the same reaction
// data, so their rate laws agree at integer states.
func Stochastic(overrides model.Params, opts ...Option) (*ctmc.Chain, error) {
	net, err := Network(opts...)
	if err != nil {
		return nil, err
	}
	bound, err := net.Bind(overrides)
	if err != nil {
		return nil, err
	}
	return ctmc.Generate(net, bound)
}

// Uninduced is the phase-1 parameter set: no inducer, both promoters at
// their basal rates.
func Uninduced() model.Params {
	return model.Params{"IPTG": 0, "aTc": 0}
}

// Induced is the phase-2 parameter set: both inducers well above their
// half-max levels.
func Induced() model.Params {
	return model.Params{"IPTG": 1000, "aTc": 100}
}
