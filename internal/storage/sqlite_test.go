//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"kinetikos/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "kinetikos.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() {
		_ = CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := model.RunRecord{
		ID:           "run-1",
		CreatedAtUTC: "2026-08-24T10:00:00Z",
		Kind:         "stochastic",
		Model:        "crispri-cascade",
		Seed:         42,
		Outcome:      "completed",
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got.Seed != 42 || got.Kind != "stochastic" {
		t.Fatalf("run changed: %+v", got)
	}

	series := model.TimeSeries{
		RunID:   "run-1",
		Species: []string{"d"},
		Times:   []float64{0},
		Values:  [][]float64{{1222}},
	}
	if err := store.SaveTimeSeries(ctx, series); err != nil {
		t.Fatalf("save series: %v", err)
	}
	gotSeries, ok, err := store.GetTimeSeries(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get series: ok=%v err=%v", ok, err)
	}
	if gotSeries.Values[0][0] != 1222 {
		t.Fatalf("series changed: %+v", gotSeries)
	}

	// Upsert keeps a single row per run.
	run.Outcome = "exported"
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("resave run: %v", err)
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != "exported" {
		t.Fatalf("upsert failed: %+v", runs)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err = store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list after reset: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("runs survived reset: %+v", runs)
	}
	if _, ok, _ := store.GetTimeSeries(ctx, "run-1"); ok {
		t.Fatal("series survived reset")
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store, err := NewStore("sqlite", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
