// Package kinetikos is the embedding API for the reaction-network kinetics
// toolkit: model loading, the two solver paths, run persistence, and
// export.
package kinetikos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"kinetikos/internal/circuit"
	"kinetikos/internal/ctmc"
	"kinetikos/internal/export"
	"kinetikos/internal/field"
	"kinetikos/internal/model"
	"kinetikos/internal/modeldef"
	"kinetikos/internal/solve"
	"kinetikos/internal/ssa"
	"kinetikos/internal/storage"
	"kinetikos/internal/summary"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "kinetikos.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store      storage.Store
	exportsDir string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, exportsDir: exportsDir}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Reset clears all persisted runs and trajectories.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// ModelRequest selects the network a solve runs against: a model definition
// file, or the bundled cascade with an optional variant toggled.
type ModelRequest struct {
	ModelPath string
	Variant   string
}

func (r ModelRequest) load() (*model.Network, string, error) {
	if r.ModelPath != "" {
		if r.Variant != "" {
			return nil, "", errors.New("variants apply to the bundled model only")
		}
		f, err := os.Open(r.ModelPath)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		net, err := modeldef.Decode(f)
		if err != nil {
			return nil, "", err
		}
		return net, r.ModelPath, nil
	}

	var opts []circuit.Option
	name := circuit.ModelName
	switch r.Variant {
	case "":
	case "competing-guide":
		opts = append(opts, circuit.WithCompetingGuide())
		name += "+competing-guide"
	default:
		return nil, "", fmt.Errorf("unknown model variant: %s", r.Variant)
	}
	net, err := circuit.Network(opts...)
	if err != nil {
		return nil, "", err
	}
	return net, name, nil
}

type SteadyStateRequest struct {
	ModelRequest
	Overrides   map[string]float64
	ResidualTol float64
	MaxHorizon  float64
}

type SteadyStateSummary struct {
	RunID   string
	State   map[string]float64
	Elapsed float64
	Steps   int
}

// SteadyState relaxes the deterministic system to its fixed point under the
// given parameter overrides and records the converged state as a
// single-sample run.
func (c *Client) SteadyState(ctx context.Context, req SteadyStateRequest) (SteadyStateSummary, error) {
	net, modelName, err := req.load()
	if err != nil {
		return SteadyStateSummary{}, err
	}
	bound, err := net.Bind(model.Params(req.Overrides))
	if err != nil {
		return SteadyStateSummary{}, err
	}
	f, err := field.Compile(net, bound)
	if err != nil {
		return SteadyStateSummary{}, err
	}

	x := f.Initial()
	stats, solveErr := solve.SteadyState(f.Derivatives, x, solve.SteadyStateConfig{
		ResidualTol: req.ResidualTol,
		MaxHorizon:  req.MaxHorizon,
	})

	run := model.RunRecord{
		ID:            uuid.NewString(),
		CreatedAtUTC:  time.Now().UTC().Format(time.RFC3339),
		Kind:          "deterministic",
		Model:         modelName,
		Overrides:     req.Overrides,
		Outcome:       "converged",
		SimulatedTime: stats.CurrentTime,
	}
	if solveErr != nil {
		run.Outcome = "non-convergence"
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return SteadyStateSummary{}, err
	}
	if solveErr != nil {
		// The run record carries the diagnosis; the caller decides on a
		// retry policy.
		return SteadyStateSummary{}, fmt.Errorf("run %s: %w", run.ID, solveErr)
	}

	series := model.TimeSeries{RunID: run.ID, Species: net.SpeciesNames()}
	series.Sample(stats.CurrentTime, x)
	if err := c.store.SaveTimeSeries(ctx, series); err != nil {
		return SteadyStateSummary{}, err
	}

	return SteadyStateSummary{
		RunID:   run.ID,
		State:   stateMap(net, x),
		Elapsed: stats.CurrentTime,
		Steps:   stats.StepCount,
	}, nil
}

type TimeCourseRequest struct {
	ModelRequest
	// PreOverrides settles phase 1; nil selects the uninduced bundled
	// protocol.
	PreOverrides map[string]float64
	// Overrides drives phase 2; nil selects the induced bundled protocol.
	Overrides      map[string]float64
	Horizon        float64
	SampleInterval float64
	ResidualTol    float64
	MaxHorizon     float64
}

type TimeCourseSummary struct {
	RunID      string
	Samples    int
	FinalState map[string]float64
}

// TimeCourse runs the two-phase induction protocol: converge to the
// pre-induction steady state, then re-initialize from it under the induced
// parameter set and record a fixed-cadence trajectory.
func (c *Client) TimeCourse(ctx context.Context, req TimeCourseRequest) (TimeCourseSummary, error) {
	net, modelName, err := req.load()
	if err != nil {
		return TimeCourseSummary{}, err
	}

	// The induction protocol belongs to the bundled cascade; a
	// caller-supplied model runs with its declared parameters unless
	// overrides are given.
	pre := req.PreOverrides
	post := req.Overrides
	if req.ModelPath == "" {
		if pre == nil {
			pre = circuit.Uninduced()
		}
		if post == nil {
			post = circuit.Induced()
		}
	}
	horizon := req.Horizon
	if horizon <= 0 {
		horizon = circuit.Horizon
	}
	interval := req.SampleInterval
	if interval <= 0 {
		interval = circuit.SampleInterval
	}

	preBound, err := net.Bind(model.Params(pre))
	if err != nil {
		return TimeCourseSummary{}, err
	}
	preField, err := field.Compile(net, preBound)
	if err != nil {
		return TimeCourseSummary{}, err
	}
	x := preField.Initial()
	if _, err := solve.SteadyState(preField.Derivatives, x, solve.SteadyStateConfig{
		ResidualTol: req.ResidualTol,
		MaxHorizon:  req.MaxHorizon,
	}); err != nil {
		return TimeCourseSummary{}, fmt.Errorf("pre-induction settle: %w", err)
	}

	postBound, err := net.Bind(model.Params(post))
	if err != nil {
		return TimeCourseSummary{}, err
	}
	postField, err := field.Compile(net, postBound)
	if err != nil {
		return TimeCourseSummary{}, err
	}
	times, values, stats, err := solve.Sample(postField.Derivatives, x, 0, horizon, interval, solve.Config{})
	if err != nil {
		return TimeCourseSummary{}, fmt.Errorf("induced time course: %w", err)
	}

	run := model.RunRecord{
		ID:            uuid.NewString(),
		CreatedAtUTC:  time.Now().UTC().Format(time.RFC3339),
		Kind:          "deterministic",
		Model:         modelName,
		Overrides:     post,
		Outcome:       "completed",
		SimulatedTime: stats.CurrentTime,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return TimeCourseSummary{}, err
	}
	series := model.TimeSeries{
		RunID:   run.ID,
		Species: net.SpeciesNames(),
		Times:   times,
		Values:  values,
	}
	if err := c.store.SaveTimeSeries(ctx, series); err != nil {
		return TimeCourseSummary{}, err
	}

	return TimeCourseSummary{
		RunID:      run.ID,
		Samples:    len(times),
		FinalState: stateMap(net, values[len(values)-1]),
	}, nil
}

type StochasticRequest struct {
	ModelRequest
	Overrides      map[string]float64
	Horizon        float64
	SampleInterval float64
	Replicates     int
	Seed           int64
}

type StochasticSummary struct {
	RunID      string
	Replicates int
	Absorbed   int
	Final      []summary.SpeciesSummary
}

// Stochastic samples an ensemble of CTMC trajectories under a fixed seed
// and records the first replicate's trajectory for export.
func (c *Client) Stochastic(ctx context.Context, req StochasticRequest) (StochasticSummary, error) {
	net, modelName, err := req.load()
	if err != nil {
		return StochasticSummary{}, err
	}
	bound, err := net.Bind(model.Params(req.Overrides))
	if err != nil {
		return StochasticSummary{}, err
	}
	chain, err := ctmc.Generate(net, bound)
	if err != nil {
		return StochasticSummary{}, err
	}

	horizon := req.Horizon
	if horizon <= 0 {
		horizon = circuit.Horizon
	}
	interval := req.SampleInterval
	if interval <= 0 {
		interval = circuit.SampleInterval
	}
	replicates := req.Replicates
	if replicates <= 0 {
		replicates = 1
	}

	results, err := ssa.RunEnsemble(chain, chain.Initial(), ssa.Config{
		Horizon:        horizon,
		SampleInterval: interval,
		Seed:           req.Seed,
	}, replicates)
	if err != nil {
		return StochasticSummary{}, err
	}

	absorbed := 0
	for _, r := range results {
		if r.Absorbed {
			absorbed++
		}
	}
	finals, err := summary.Final(net.SpeciesNames(), results)
	if err != nil {
		return StochasticSummary{}, err
	}

	run := model.RunRecord{
		ID:            uuid.NewString(),
		CreatedAtUTC:  time.Now().UTC().Format(time.RFC3339),
		Kind:          "stochastic",
		Model:         modelName,
		Seed:          req.Seed,
		Overrides:     req.Overrides,
		Outcome:       "completed",
		SimulatedTime: horizon,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return StochasticSummary{}, err
	}
	series := model.TimeSeries{
		RunID:   run.ID,
		Species: net.SpeciesNames(),
		Times:   results[0].Times,
		Values:  results[0].Values,
	}
	if err := c.store.SaveTimeSeries(ctx, series); err != nil {
		return StochasticSummary{}, err
	}

	return StochasticSummary{
		RunID:      run.ID,
		Replicates: replicates,
		Absorbed:   absorbed,
		Final:      finals,
	}, nil
}

type RunsRequest struct {
	Limit int
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, req.Limit)
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID string
	Path  string
}

// Export writes a stored trajectory as a compressed delimited file.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID := req.RunID
	if req.Latest {
		runs, err := c.store.ListRuns(ctx, 1)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(runs) == 0 {
			return ExportSummary{}, errors.New("no runs recorded")
		}
		runID = runs[0].ID
	}
	if runID == "" {
		return ExportSummary{}, errors.New("run id is required")
	}

	series, ok, err := c.store.GetTimeSeries(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run %s has no stored trajectory", runID)
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = c.exportsDir
	}
	path, err := export.TimeSeriesFile(outDir, series)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Path: path}, nil
}

type EquationsRequest struct {
	ModelRequest
	// Format is "text" (default) or "latex".
	Format string
}

// Equations renders the model's reaction list as mathematical notation.
func (c *Client) Equations(req EquationsRequest) (string, error) {
	net, _, err := req.load()
	if err != nil {
		return "", err
	}
	switch req.Format {
	case "", "text":
		return export.Reactions(net), nil
	case "latex":
		return export.LaTeX(net), nil
	default:
		return "", fmt.Errorf("unknown equations format: %s", req.Format)
	}
}

// Validate loads a model definition and reports its shape without running
// anything.
func (c *Client) Validate(req ModelRequest) (species, reactions int, err error) {
	net, _, err := req.load()
	if err != nil {
		return 0, 0, err
	}
	return net.NumSpecies(), net.NumReactions(), nil
}

func stateMap(net *model.Network, x []float64) map[string]float64 {
	out := make(map[string]float64, net.NumSpecies())
	for i, name := range net.SpeciesNames() {
		out[name] = x[i]
	}
	return out
}
