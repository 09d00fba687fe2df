package model

import (
	"math"
	"testing"
)

func TestMassActionFluxIsProductOfReactantQuantities(t *testing.T) {
	net := testNetwork(t)
	bound, err := net.Bind(nil)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	bind, err := net.RateFunc(0, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	// bind: k_f * a * b
	x := []float64{10, 4, 0}
	if got, want := bind(x), 0.5*10*4; got != want {
		t.Fatalf("bind flux: got %v want %v", got, want)
	}

	unbind, err := net.RateFunc(1, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	x = []float64{0, 0, 7}
	if got, want := unbind(x), 0.1*7; got != want {
		t.Fatalf("unbind flux: got %v want %v", got, want)
	}
}

func TestMassActionBimolecularSquaredCoefficient(t *testing.T) {
	net, err := NewNetwork().
		Param("k", 0.25).
		Species("a", 6).
		Species("d", 0).
		Reaction("dimerize",
			[]Term{{Species: "a", Coeff: 2}},
			[]Term{{Species: "d", Coeff: 1}},
			MassAction{Rate: "k"}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	bound, _ := net.Bind(nil)
	flux, err := net.RateFunc(0, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	// Simple count multiplication, not a*(a-1)/2.
	if got, want := flux([]float64{6, 0}), 0.25*6*6; got != want {
		t.Fatalf("dimerize flux: got %v want %v", got, want)
	}
}

func hillNetwork(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork().
		Param("aTc", 0).
		Param("dtet_min", 0.0000931).
		Param("dtet_max", 0.046).
		Param("dtet_half", 13).
		Param("dtet_n", 2).
		Species("g_An", 0).
		Reaction("transcribe_guide",
			nil,
			[]Term{{Species: "g_An", Coeff: 1}},
			Hill{Input: "aTc", Min: "dtet_min", Max: "dtet_max", Half: "dtet_half", Exp: "dtet_n"}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return net
}

func TestHillLowerBoundAtZeroInput(t *testing.T) {
	net := hillNetwork(t)
	bound, _ := net.Bind(nil)
	flux, err := net.RateFunc(0, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	if got := flux([]float64{0}); got != 0.0000931 {
		t.Fatalf("dtet(0): got %v want 0.0000931", got)
	}
}

func TestHillExactHalfMaxAtHalfConstant(t *testing.T) {
	net := hillNetwork(t)
	bound, err := net.Bind(Params{"aTc": 13})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	flux, err := net.RateFunc(0, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	want := 0.0000931 + (0.046-0.0000931)*0.5
	if got := flux([]float64{0}); math.Abs(got-want) > 1e-15 {
		t.Fatalf("dtet(13): got %v want %v", got, want)
	}
}

func TestHillApproachesUpperBound(t *testing.T) {
	net := hillNetwork(t)
	bound, _ := net.Bind(Params{"aTc": 1e9})
	flux, err := net.RateFunc(0, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	if got := flux([]float64{0}); math.Abs(got-0.046) > 1e-6 {
		t.Fatalf("dtet(1e9): got %v want ~0.046", got)
	}
}

func TestHillSpeciesInput(t *testing.T) {
	net, err := NewNetwork().
		Param("min", 1).
		Param("max", 5).
		Param("half", 2).
		Param("n", 1).
		Species("r", 0).
		Species("m", 0).
		Reaction("tx",
			nil,
			[]Term{{Species: "m", Coeff: 1}},
			Hill{Input: "r", Min: "min", Max: "max", Half: "half", Exp: "n"}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	bound, _ := net.Bind(nil)
	flux, err := net.RateFunc(0, bound)
	if err != nil {
		t.Fatalf("rate func: %v", err)
	}
	if got := flux([]float64{0, 0}); got != 1 {
		t.Fatalf("hill(r=0): got %v want 1", got)
	}
	if got, want := flux([]float64{2, 0}), 3.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("hill(r=half): got %v want %v", got, want)
	}
}
