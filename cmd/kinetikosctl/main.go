package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kinetikos/internal/storage"
	kinapi "kinetikos/pkg/kinetikos"
)

const exportsDir = "exports"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "steady":
		return runSteady(ctx, args[1:])
	case "timecourse":
		return runTimeCourse(ctx, args[1:])
	case "ssa":
		return runSSA(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "equations":
		return runEquations(ctx, args[1:])
	case "validate":
		return runValidate(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: kinetikosctl <init|reset|steady|timecourse|ssa|runs|export|equations|validate> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*kinapi.Client, error) {
	return kinapi.New(kinapi.Options{
		StoreKind:  storeKind,
		DBPath:     dbPath,
		ExportsDir: exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runSteady(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("steady", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional solve config JSON path")
	modelPath := fs.String("model", "", "model definition YAML path (default: bundled cascade)")
	variant := fs.String("variant", "", "bundled model variant: competing-guide")
	residualTol := fs.Float64("residual-tol", 0, "steady-state residual tolerance (0 uses solver default)")
	maxHorizon := fs.Float64("max-horizon", 0, "simulated-time budget before giving up (0 uses solver default)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit converged state as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := kinapi.SteadyStateRequest{
		ModelRequest: kinapi.ModelRequest{ModelPath: *modelPath, Variant: *variant},
		ResidualTol:  *residualTol,
		MaxHorizon:   *maxHorizon,
	}
	if *configPath != "" {
		cfg, err := loadSolveConfig(*configPath)
		if err != nil {
			return err
		}
		cfg.applySteady(&req)
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	sum, err := client.SteadyState(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Printf("steady state run_id=%s elapsed=%g steps=%d\n", sum.RunID, sum.Elapsed, sum.Steps)
	for _, name := range sortedKeys(sum.State) {
		fmt.Printf("%s=%.6g\n", name, sum.State[name])
	}
	return nil
}

func runTimeCourse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("timecourse", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional solve config JSON path")
	modelPath := fs.String("model", "", "model definition YAML path (default: bundled cascade)")
	variant := fs.String("variant", "", "bundled model variant: competing-guide")
	horizon := fs.Float64("horizon", 0, "simulated horizon (0 uses the bundled protocol)")
	interval := fs.Float64("interval", 0, "sample cadence (0 uses the bundled protocol)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := kinapi.TimeCourseRequest{
		ModelRequest:   kinapi.ModelRequest{ModelPath: *modelPath, Variant: *variant},
		Horizon:        *horizon,
		SampleInterval: *interval,
	}
	if *configPath != "" {
		cfg, err := loadSolveConfig(*configPath)
		if err != nil {
			return err
		}
		cfg.applyTimeCourse(&req)
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	sum, err := client.TimeCourse(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Printf("time course run_id=%s samples=%d\n", sum.RunID, sum.Samples)
	for _, name := range sortedKeys(sum.FinalState) {
		fmt.Printf("%s=%.6g\n", name, sum.FinalState[name])
	}
	return nil
}

func runSSA(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ssa", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional solve config JSON path")
	modelPath := fs.String("model", "", "model definition YAML path (default: bundled cascade)")
	variant := fs.String("variant", "", "bundled model variant: competing-guide")
	horizon := fs.Float64("horizon", 0, "simulated horizon (0 uses the bundled protocol)")
	interval := fs.Float64("interval", 0, "sample cadence (0 uses the bundled protocol)")
	replicates := fs.Int("replicates", 1, "trajectory count")
	seed := fs.Int64("seed", 1, "rng seed")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit ensemble summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *replicates <= 0 {
		return errors.New("replicates must be > 0")
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req := kinapi.StochasticRequest{
		ModelRequest:   kinapi.ModelRequest{ModelPath: *modelPath, Variant: *variant},
		Horizon:        *horizon,
		SampleInterval: *interval,
		Replicates:     *replicates,
		Seed:           *seed,
	}
	if *configPath != "" {
		cfg, err := loadSolveConfig(*configPath)
		if err != nil {
			return err
		}
		cfg.applyStochastic(&req, setFlags)
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	sum, err := client.Stochastic(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Printf("ssa run_id=%s replicates=%d absorbed=%d seed=%d\n",
		sum.RunID, sum.Replicates, sum.Absorbed, req.Seed)
	for _, s := range sum.Final {
		fmt.Printf("%s mean=%.6g variance=%.6g min=%g max=%g\n",
			s.Name, s.Mean, s.Variance, s.Min, s.Max)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.Runs(ctx, kinapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Printf("run_id=%s created_at=%s kind=%s model=%s seed=%d outcome=%s simulated_time=%g\n",
			r.ID, r.CreatedAtUTC, r.Kind, r.Model, r.Seed, r.Outcome, r.SimulatedTime)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "output directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "kinetikos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	sum, err := client.Export(ctx, kinapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s path=%s\n", sum.RunID, filepath.Clean(sum.Path))
	return nil
}

func runEquations(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("equations", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model definition YAML path (default: bundled cascade)")
	variant := fs.String("variant", "", "bundled model variant: competing-guide")
	format := fs.String("format", "text", "output format: text|latex")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.Equations(kinapi.EquationsRequest{
		ModelRequest: kinapi.ModelRequest{ModelPath: *modelPath, Variant: *variant},
		Format:       *format,
	})
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runValidate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model definition YAML path (default: bundled cascade)")
	variant := fs.String("variant", "", "bundled model variant: competing-guide")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	species, reactions, err := client.Validate(kinapi.ModelRequest{
		ModelPath: *modelPath,
		Variant:   *variant,
	})
	if err != nil {
		return err
	}

	fmt.Printf("valid species=%d reactions=%d\n", species, reactions)
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
