package solve

import (
	"fmt"
	"math"
)

// SteadyStateConfig bounds the steady-state search.
type SteadyStateConfig struct {
	Config

	// ResidualTol is the infinity-norm tolerance on dx/dt.
	ResidualTol float64
	// InitialHorizon is the first integration stretch; stretches double
	// until convergence or MaxHorizon.
	InitialHorizon float64
	// MaxHorizon caps the total simulated time before the search fails
	// with NonConvergenceError.
	MaxHorizon float64
}

func (c SteadyStateConfig) withDefaults() SteadyStateConfig {
	c.Config = c.Config.withDefaults()
	if c.ResidualTol <= 0 {
		c.ResidualTol = 1e-8
	}
	if c.InitialHorizon <= 0 {
		c.InitialHorizon = 1000
	}
	if c.MaxHorizon <= 0 {
		c.MaxHorizon = 1e9
	}
	return c
}

// NonConvergenceError reports a steady-state search that exhausted its
// horizon budget. It carries the last state and elapsed simulated time so
// the caller can diagnose or retry with a larger horizon.
type NonConvergenceError struct {
	LastState []float64
	Elapsed   float64
	Residual  float64
	Tol       float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("steady state not reached after t=%v: residual %v exceeds tolerance %v",
		e.Elapsed, e.Residual, e.Tol)
}

// SteadyState integrates x in place over doubling stretches until the
// residual infinity norm of the field drops within tolerance. A state that
// already satisfies the tolerance converges immediately without
// integrating.
func SteadyState(f Func, x []float64, cfg SteadyStateConfig) (Statistics, error) {
	cfg = cfg.withDefaults()
	var stats Statistics

	residual := residualNorm(f, stats.CurrentTime, x)
	stats.EvaluationCount++
	if residual <= cfg.ResidualTol {
		return stats, nil
	}

	t := 0.0
	stretch := cfg.InitialHorizon
	for {
		if t >= cfg.MaxHorizon {
			return stats, &NonConvergenceError{
				LastState: append([]float64(nil), x...),
				Elapsed:   t,
				Residual:  residual,
				Tol:       cfg.ResidualTol,
			}
		}
		end := t + stretch
		if end > cfg.MaxHorizon {
			end = cfg.MaxHorizon
		}

		segStats, err := Integrate(f, x, t, end, cfg.Config)
		stats.StepCount += segStats.StepCount
		stats.RejectedCount += segStats.RejectedCount
		stats.EvaluationCount += segStats.EvaluationCount
		stats.LastStepSize = segStats.LastStepSize
		stats.CurrentTime = segStats.CurrentTime
		if err != nil {
			return stats, fmt.Errorf("steady-state stretch [%v, %v]: %w", t, end, err)
		}
		t = end

		residual = residualNorm(f, t, x)
		stats.EvaluationCount++
		if residual <= cfg.ResidualTol {
			return stats, nil
		}
		stretch *= 2
	}
}

func residualNorm(f Func, t float64, x []float64) float64 {
	dx := make([]float64, len(x))
	f(t, x, dx)
	norm := 0.0
	for _, v := range dx {
		if a := math.Abs(v); a > norm {
			norm = a
		}
	}
	return norm
}
