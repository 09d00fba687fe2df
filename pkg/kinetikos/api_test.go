package kinetikos

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const turnoverDef = `name: turnover
params:
  - name: k_in
    value: 0.5
  - name: k_out
    value: 0.1
species:
  - name: a
    initial: 0
reactions:
  - name: inflow
    produce:
      - species: a
    rate:
      mass_action:
        rate: k_in
  - name: outflow
    consume:
      - species: a
    rate:
      mass_action:
        rate: k_out
`

const decayDef = `name: decay
params:
  - name: k
    value: 0.5
species:
  - name: a
    initial: 30
reactions:
  - name: decay
    consume:
      - species: a
    rate:
      mass_action:
        rate: k
`

func writeModel(t *testing.T, def string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(def), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Options{StoreKind: "memory", ExportsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSteadyStateAndExport(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sum, err := c.SteadyState(ctx, SteadyStateRequest{
		ModelRequest: ModelRequest{ModelPath: writeModel(t, turnoverDef)},
	})
	if err != nil {
		t.Fatalf("steady state: %v", err)
	}
	// Fixed point of da/dt = k_in - k_out*a.
	if math.Abs(sum.State["a"]-5) > 1e-6 {
		t.Fatalf("steady state of a: got %v want 5", sum.State["a"])
	}
	if sum.RunID == "" {
		t.Fatal("expected a run id")
	}

	runs, err := c.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != sum.RunID {
		t.Fatalf("run listing: %+v", runs)
	}
	if runs[0].Kind != "deterministic" || runs[0].Outcome != "converged" {
		t.Fatalf("run record: %+v", runs[0])
	}

	exp, err := c.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.RunID != sum.RunID {
		t.Fatalf("exported run: got %s want %s", exp.RunID, sum.RunID)
	}
	if !strings.HasSuffix(exp.Path, ".csv.gz") {
		t.Fatalf("export path: %s", exp.Path)
	}
	if _, err := os.Stat(exp.Path); err != nil {
		t.Fatalf("export file: %v", err)
	}
}

func TestExportWithoutRuns(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.Export(context.Background(), ExportRequest{Latest: true}); err == nil {
		t.Fatal("expected error with no recorded runs")
	}
	if _, err := c.Export(context.Background(), ExportRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestTimeCourseCustomModel(t *testing.T) {
	c := newTestClient(t)

	sum, err := c.TimeCourse(context.Background(), TimeCourseRequest{
		ModelRequest:   ModelRequest{ModelPath: writeModel(t, turnoverDef)},
		PreOverrides:   map[string]float64{},
		Overrides:      map[string]float64{"k_in": 1.0},
		Horizon:        200,
		SampleInterval: 50,
	})
	if err != nil {
		t.Fatalf("time course: %v", err)
	}
	if sum.Samples != 5 {
		t.Fatalf("samples: got %d want 5", sum.Samples)
	}
	// Phase 2 relaxes from a=5 toward the doubled inflow's fixed point
	// a=10 with time constant 1/k_out = 10; at t=200 the gap is gone.
	if math.Abs(sum.FinalState["a"]-10) > 1e-2 {
		t.Fatalf("final state of a: got %v want 10", sum.FinalState["a"])
	}
}

func TestTimeCourseCustomModelWithoutOverrides(t *testing.T) {
	c := newTestClient(t)

	// A model file without the bundled cascade's inducer parameters must
	// run under its own declared parameters when no overrides are given.
	sum, err := c.TimeCourse(context.Background(), TimeCourseRequest{
		ModelRequest:   ModelRequest{ModelPath: writeModel(t, turnoverDef)},
		Horizon:        100,
		SampleInterval: 25,
	})
	if err != nil {
		t.Fatalf("time course: %v", err)
	}
	if sum.Samples != 5 {
		t.Fatalf("samples: got %d want 5", sum.Samples)
	}
	// Both phases share the declared parameters, so the trajectory stays
	// at the pre-settled fixed point.
	if math.Abs(sum.FinalState["a"]-5) > 1e-6 {
		t.Fatalf("final state of a: got %v want 5", sum.FinalState["a"])
	}
}

func TestStochasticDeterministicUnderSeed(t *testing.T) {
	c := newTestClient(t)
	path := writeModel(t, decayDef)

	req := StochasticRequest{
		ModelRequest:   ModelRequest{ModelPath: path},
		Horizon:        1000,
		SampleInterval: 100,
		Replicates:     3,
		Seed:           7,
	}
	first, err := c.Stochastic(context.Background(), req)
	if err != nil {
		t.Fatalf("stochastic: %v", err)
	}
	if first.Replicates != 3 {
		t.Fatalf("replicates: %d", first.Replicates)
	}
	// Pure decay from 30 molecules exhausts long before the horizon.
	if first.Absorbed != 3 {
		t.Fatalf("absorbed replicates: got %d want 3", first.Absorbed)
	}
	if first.Final[0].Name != "a" || first.Final[0].Mean != 0 {
		t.Fatalf("final summary: %+v", first.Final[0])
	}

	second, err := c.Stochastic(context.Background(), req)
	if err != nil {
		t.Fatalf("stochastic rerun: %v", err)
	}
	if second.Final[0].Variance != first.Final[0].Variance {
		t.Fatalf("reruns under one seed diverged: %v vs %v",
			first.Final[0].Variance, second.Final[0].Variance)
	}

	runs, err := c.Runs(context.Background(), RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].Kind != "stochastic" || runs[0].Seed != 7 {
		t.Fatalf("run records: %+v", runs)
	}
}

func TestValidateBundledModelAndVariants(t *testing.T) {
	c := newTestClient(t)

	species, reactions, err := c.Validate(ModelRequest{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if species != 8 || reactions != 14 {
		t.Fatalf("bundled model shape: %d species, %d reactions", species, reactions)
	}

	species, reactions, err = c.Validate(ModelRequest{Variant: "competing-guide"})
	if err != nil {
		t.Fatalf("validate variant: %v", err)
	}
	if species != 11 || reactions != 20 {
		t.Fatalf("variant shape: %d species, %d reactions", species, reactions)
	}

	if _, _, err := c.Validate(ModelRequest{Variant: "nope"}); err == nil {
		t.Fatal("expected error for unknown variant")
	}
	if _, _, err := c.Validate(ModelRequest{ModelPath: "x.yaml", Variant: "competing-guide"}); err == nil {
		t.Fatal("expected error combining model path with a variant")
	}
}

func TestEquationsFormats(t *testing.T) {
	c := newTestClient(t)

	text, err := c.Equations(EquationsRequest{})
	if err != nil {
		t.Fatalf("equations: %v", err)
	}
	if !strings.Contains(text, "complex_formation: d + g_An -> c_An") {
		t.Fatalf("text rendering:\n%s", text)
	}

	tex, err := c.Equations(EquationsRequest{Format: "latex"})
	if err != nil {
		t.Fatalf("latex: %v", err)
	}
	if !strings.HasPrefix(tex, "\\begin{align}") {
		t.Fatalf("latex rendering:\n%s", tex)
	}

	if _, err := c.Equations(EquationsRequest{Format: "pdf"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
