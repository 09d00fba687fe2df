package main

import (
	"encoding/json"
	"fmt"
	"os"

	kinapi "kinetikos/pkg/kinetikos"
)

// solveConfig is the JSON request file shared by the solver commands. All
// fields are optional. The request is built from flags first and the config
// fills in afterwards, only where the request still holds its zero value;
// for seed and replicates, whose flag defaults are non-zero, the command
// reports which flags were set explicitly so the config cannot override
// them.
type solveConfig struct {
	overrides    map[string]float64
	preOverrides map[string]float64
	residualTol  float64
	maxHorizon   float64
	horizon      float64
	interval     float64
	replicates   int
	seed         int64
	hasSeed      bool
}

func loadSolveConfig(path string) (solveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return solveConfig{}, fmt.Errorf("load config: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return solveConfig{}, fmt.Errorf("load config: %w", err)
	}

	var cfg solveConfig
	if m, ok := raw["overrides"].(map[string]any); ok {
		cfg.overrides, err = asParamMap(m)
		if err != nil {
			return solveConfig{}, fmt.Errorf("config overrides: %w", err)
		}
	}
	if m, ok := raw["pre_overrides"].(map[string]any); ok {
		cfg.preOverrides, err = asParamMap(m)
		if err != nil {
			return solveConfig{}, fmt.Errorf("config pre_overrides: %w", err)
		}
	}
	if v, ok := asFloat64(raw["residual_tol"]); ok {
		cfg.residualTol = v
	}
	if v, ok := asFloat64(raw["max_horizon"]); ok {
		cfg.maxHorizon = v
	}
	if v, ok := asFloat64(raw["horizon"]); ok {
		cfg.horizon = v
	}
	if v, ok := asFloat64(raw["interval"]); ok {
		cfg.interval = v
	}
	if v, ok := asInt(raw["replicates"]); ok {
		cfg.replicates = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.seed = v
		cfg.hasSeed = true
	}
	return cfg, nil
}

func (c solveConfig) applySteady(req *kinapi.SteadyStateRequest) {
	if c.overrides != nil {
		req.Overrides = c.overrides
	}
	if req.ResidualTol == 0 {
		req.ResidualTol = c.residualTol
	}
	if req.MaxHorizon == 0 {
		req.MaxHorizon = c.maxHorizon
	}
}

func (c solveConfig) applyTimeCourse(req *kinapi.TimeCourseRequest) {
	if c.preOverrides != nil {
		req.PreOverrides = c.preOverrides
	}
	if c.overrides != nil {
		req.Overrides = c.overrides
	}
	if req.Horizon == 0 {
		req.Horizon = c.horizon
	}
	if req.SampleInterval == 0 {
		req.SampleInterval = c.interval
	}
	req.ResidualTol = c.residualTol
	req.MaxHorizon = c.maxHorizon
}

func (c solveConfig) applyStochastic(req *kinapi.StochasticRequest, setFlags map[string]bool) {
	if c.overrides != nil {
		req.Overrides = c.overrides
	}
	if req.Horizon == 0 {
		req.Horizon = c.horizon
	}
	if req.SampleInterval == 0 {
		req.SampleInterval = c.interval
	}
	if c.replicates > 0 && !setFlags["replicates"] {
		req.Replicates = c.replicates
	}
	if c.hasSeed && !setFlags["seed"] {
		req.Seed = c.seed
	}
}

func asParamMap(m map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(m))
	for name, v := range m {
		f, ok := asFloat64(v)
		if !ok {
			return nil, fmt.Errorf("parameter %s is not a number", name)
		}
		out[name] = f
	}
	return out, nil
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
