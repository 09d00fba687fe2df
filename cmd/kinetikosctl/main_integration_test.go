package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const turnoverModel = `name: turnover
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

func writeModelFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(turnoverModel), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error")
	}
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected unknown-command error")
	}
}

func TestInitAndResetMemoryStore(t *testing.T) {
	ctx := context.Background()
	if err := run(ctx, []string{"init", "-store", "memory"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := run(ctx, []string{"reset", "-store", "memory"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	ctx := context.Background()
	if err := run(ctx, []string{"validate"}); err != nil {
		t.Fatalf("validate bundled: %v", err)
	}
	if err := run(ctx, []string{"validate", "-variant", "competing-guide"}); err != nil {
		t.Fatalf("validate variant: %v", err)
	}
	if err := run(ctx, []string{"validate", "-variant", "bogus"}); err == nil {
		t.Fatal("expected error for unknown variant")
	}
	if err := run(ctx, []string{"validate", "-model", "does-not-exist.yaml"}); err == nil {
		t.Fatal("expected error for missing model file")
	}
}

func TestSteadyCommandWithModelFile(t *testing.T) {
	err := run(context.Background(), []string{
		"steady", "-store", "memory", "-model", writeModelFile(t), "-json",
	})
	if err != nil {
		t.Fatalf("steady: %v", err)
	}
}

func TestSSACommandWithConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	cfg := `{"horizon": 100, "interval": 20, "replicates": 2, "seed": 11}`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := run(context.Background(), []string{
		"ssa", "-store", "memory", "-model", writeModelFile(t), "-config", cfgPath, "-json",
	})
	if err != nil {
		t.Fatalf("ssa: %v", err)
	}

	if err := run(context.Background(), []string{"ssa", "-replicates", "0"}); err == nil {
		t.Fatal("expected error for zero replicates")
	}
}

func TestExportFlagValidation(t *testing.T) {
	ctx := context.Background()
	if err := run(ctx, []string{"export"}); err == nil {
		t.Fatal("expected error without run selection")
	}
	if err := run(ctx, []string{"export", "-run-id", "x", "-latest"}); err == nil {
		t.Fatal("expected error for conflicting selection")
	}
}

func TestEquationsCommand(t *testing.T) {
	ctx := context.Background()
	if err := run(ctx, []string{"equations", "-format", "latex"}); err != nil {
		t.Fatalf("equations: %v", err)
	}
	if err := run(ctx, []string{"equations", "-format", "pdf"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
