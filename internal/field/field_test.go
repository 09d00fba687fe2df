package field

import (
	"math"
	"testing"

	"kinetikos/internal/model"
)

func singleReactionNetwork(t *testing.T) *model.Network {
	t.Helper()
	net, err := model.NewNetwork().
		Param("k", 0.3).
		Species("a", 8).
		Species("b", 2).
		Species("c", 0).
		Reaction("combine",
			[]model.Term{{Species: "a", Coeff: 1}, {Species: "b", Coeff: 1}},
			[]model.Term{{Species: "c", Coeff: 1}},
			model.MassAction{Rate: "k"}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return net
}

func TestSingleReactionClosedForm(t *testing.T) {
	net := singleReactionNetwork(t)
	bound, err := net.Bind(nil)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	f, err := Compile(net, bound)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	// dx/dt must equal the signed-coefficient-weighted flux at several
	// sample states: da/dt = db/dt = -k*a*b, dc/dt = +k*a*b.
	states := [][]float64{
		{8, 2, 0},
		{1, 1, 5},
		{0, 7, 3},
		{123.5, 0.25, 9},
	}
	dx := make([]float64, 3)
	for _, x := range states {
		f.Derivatives(0, x, dx)
		flux := 0.3 * x[0] * x[1]
		if dx[0] != -flux || dx[1] != -flux || dx[2] != flux {
			t.Fatalf("state %v: got %v want [-%v -%v %v]", x, dx, flux, flux, flux)
		}
	}
}

func TestDerivativesResetOutputBuffer(t *testing.T) {
	net := singleReactionNetwork(t)
	bound, _ := net.Bind(nil)
	f, err := Compile(net, bound)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	dx := []float64{99, 99, 99}
	f.Derivatives(0, []float64{0, 0, 0}, dx)
	for i, v := range dx {
		if v != 0 {
			t.Fatalf("dx[%d] not reset: %v", i, v)
		}
	}
}

func TestZeroOrderProductionIsConstant(t *testing.T) {
	net, err := model.NewNetwork().
		Param("inducer", 40).
		Param("v_min", 0.001).
		Param("v_max", 0.1).
		Param("v_half", 40).
		Param("v_n", 2).
		Param("k_deg", 0.05).
		Species("m", 0).
		Reaction("transcribe",
			nil,
			[]model.Term{{Species: "m", Coeff: 1}},
			model.Hill{Input: "inducer", Min: "v_min", Max: "v_max", Half: "v_half", Exp: "v_n"}).
		Reaction("degrade",
			[]model.Term{{Species: "m", Coeff: 1}},
			nil,
			model.MassAction{Rate: "k_deg"}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	bound, _ := net.Bind(nil)
	f, err := Compile(net, bound)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	// At the half-max inducer level production runs at exactly half max.
	production := 0.001 + (0.1-0.001)*0.5
	dx := make([]float64, 1)
	f.Derivatives(0, []float64{10}, dx)
	want := production - 0.05*10
	if math.Abs(dx[0]-want) > 1e-15 {
		t.Fatalf("dm/dt: got %v want %v", dx[0], want)
	}

	// The analytic steady state m* = production / k_deg zeroes the field.
	f.Derivatives(0, []float64{production / 0.05}, dx)
	if math.Abs(dx[0]) > 1e-15 {
		t.Fatalf("dm/dt at steady state: got %v want 0", dx[0])
	}
}

func TestCompileSurfacesUnknownOverride(t *testing.T) {
	net := singleReactionNetwork(t)
	if _, err := net.Bind(model.Params{"nope": 1}); err == nil {
		t.Fatal("expected bind error for unknown override")
	}
}

func TestFluxesMatchReactionOrder(t *testing.T) {
	net := singleReactionNetwork(t)
	bound, _ := net.Bind(model.Params{"k": 2})
	f, err := Compile(net, bound)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	fluxes := f.Fluxes([]float64{3, 4, 0})
	if len(fluxes) != 1 || fluxes[0] != 2*3*4 {
		t.Fatalf("fluxes: got %v want [24]", fluxes)
	}
}
