// Package solve drives a compiled vector field: an adaptive linearly
// implicit Rosenbrock integrator for stiff systems, fixed-cadence sampling,
// and a steady-state search over an expanding horizon.
package solve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Func evaluates the right-hand side of the ODE system: dx/dt at (t, x),
// written into dx.
type Func func(t float64, x, dx []float64)

// Config bounds one integration. Zero values select defaults.
type Config struct {
	// InitialStep, if > 0, is the step size tried first.
	InitialStep float64
	// MinStep, if > 0, aborts the integration when step control would
	// shrink below it.
	MinStep float64
	// MaxStep, if > 0, caps the step size.
	MaxStep float64

	AbsTol float64
	RelTol float64

	// MaxSteps, if > 0, caps the number of accepted steps before the
	// integration aborts.
	MaxSteps int
}

func (c Config) withDefaults() Config {
	if c.InitialStep <= 0 {
		c.InitialStep = 1e-3
	}
	if c.MinStep <= 0 {
		c.MinStep = 1e-12
	}
	if c.AbsTol <= 0 {
		c.AbsTol = 1e-9
	}
	if c.RelTol <= 0 {
		c.RelTol = 1e-6
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = 10_000_000
	}
	return c
}

// Statistics reports what one integration did.
type Statistics struct {
	StepCount       int
	RejectedCount   int
	EvaluationCount int
	LastStepSize    float64
	CurrentTime     float64
}

var errStepUnderflow = errors.New("step size underflow")

// ros2Gamma makes the two-stage Rosenbrock scheme L-stable.
var ros2Gamma = 1 + 1/math.Sqrt2

// Integrate advances x in place from t0 to t1 with the two-stage
// Rosenbrock method (ROS2): per step a finite-difference Jacobian, one LU
// factorization of W = I - gamma*h*J, and two backsolves. The embedded
// linearly implicit Euler solution supplies the error estimate.
func Integrate(f Func, x []float64, t0, t1 float64, cfg Config) (Statistics, error) {
	cfg = cfg.withDefaults()
	n := len(x)
	var stats Statistics
	stats.CurrentTime = t0

	if t1 <= t0 {
		return stats, nil
	}

	f0 := make([]float64, n)
	f1 := make([]float64, n)
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	xStage := make([]float64, n)
	xNew := make([]float64, n)
	jac := mat.NewDense(n, n, nil)
	w := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	sol := mat.NewVecDense(n, nil)
	var lu mat.LU

	h := cfg.InitialStep
	if cfg.MaxStep > 0 && h > cfg.MaxStep {
		h = cfg.MaxStep
	}
	t := t0

	for t < t1 {
		// Accumulated rounding can leave t a few ulps short of t1; that
		// remainder is not a step to take.
		if t1-t <= 4*2.2e-16*math.Abs(t1) {
			stats.CurrentTime = t1
			break
		}
		lastStep := false
		if h >= t1-t {
			h = t1 - t
			lastStep = true
		}
		if h < cfg.MinStep {
			return stats, fmt.Errorf("%w at t=%v (h=%v)", errStepUnderflow, t, h)
		}
		if stats.StepCount >= cfg.MaxSteps {
			return stats, fmt.Errorf("integration exceeded %d steps at t=%v", cfg.MaxSteps, t)
		}

		f(t, x, f0)
		stats.EvaluationCount++
		fdJacobian(f, t, x, f0, jac, xStage)
		stats.EvaluationCount += n

		// W = I - gamma*h*J
		gh := ros2Gamma * h
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := -gh * jac.At(i, j)
				if i == j {
					v++
				}
				w.Set(i, j, v)
			}
		}
		lu.Factorize(w)

		for i := 0; i < n; i++ {
			rhs.SetVec(i, f0[i])
		}
		if err := lu.SolveVecTo(sol, false, rhs); err != nil {
			return stats, fmt.Errorf("rosenbrock stage 1 solve at t=%v: %w", t, err)
		}
		for i := 0; i < n; i++ {
			k1[i] = sol.AtVec(i)
			xStage[i] = x[i] + h*k1[i]
		}

		f(t+h, xStage, f1)
		stats.EvaluationCount++
		for i := 0; i < n; i++ {
			rhs.SetVec(i, f1[i]-2*k1[i])
		}
		if err := lu.SolveVecTo(sol, false, rhs); err != nil {
			return stats, fmt.Errorf("rosenbrock stage 2 solve at t=%v: %w", t, err)
		}
		for i := 0; i < n; i++ {
			k2[i] = sol.AtVec(i)
			xNew[i] = x[i] + h*(1.5*k1[i]+0.5*k2[i])
		}

		// Error against the embedded first-order solution x + h*k1.
		errNorm := 0.0
		for i := 0; i < n; i++ {
			est := math.Abs(0.5 * h * (k1[i] + k2[i]))
			sc := cfg.AbsTol + cfg.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
			r := est / sc
			errNorm += r * r
		}
		errNorm = math.Sqrt(errNorm / float64(n))

		if errNorm <= 1 {
			t += h
			if lastStep {
				// t + (t1-t) need not round to t1 exactly.
				t = t1
			}
			copy(x, xNew)
			stats.StepCount++
			stats.LastStepSize = h
			stats.CurrentTime = t
		} else {
			stats.RejectedCount++
		}

		factor := 5.0
		if errNorm > 0 {
			factor = 0.9 / math.Sqrt(errNorm)
			if factor > 5 {
				factor = 5
			} else if factor < 0.2 {
				factor = 0.2
			}
		}
		h *= factor
		if cfg.MaxStep > 0 && h > cfg.MaxStep {
			h = cfg.MaxStep
		}
	}

	return stats, nil
}

// fdJacobian fills jac with a forward-difference approximation of df/dx at
// (t, x), given f0 = f(t, x). scratch must have length len(x).
func fdJacobian(f Func, t float64, x, f0 []float64, jac *mat.Dense, scratch []float64) {
	n := len(x)
	col := make([]float64, n)
	for j := 0; j < n; j++ {
		delta := math.Sqrt(2.2e-16) * math.Max(math.Abs(x[j]), 1)
		copy(scratch, x)
		scratch[j] += delta
		f(t, scratch, col)
		for i := 0; i < n; i++ {
			jac.Set(i, j, (col[i]-f0[i])/delta)
		}
	}
}

// Sample integrates from t0 to t1 and records the state at every fixed
// interval, starting with the initial state at t0. x0 is not mutated.
func Sample(f Func, x0 []float64, t0, t1, interval float64, cfg Config) (times []float64, values [][]float64, stats Statistics, err error) {
	if interval <= 0 {
		return nil, nil, stats, fmt.Errorf("sample interval must be positive, got %v", interval)
	}
	x := make([]float64, len(x0))
	copy(x, x0)

	record := func(t float64) {
		row := make([]float64, len(x))
		copy(row, x)
		times = append(times, t)
		values = append(values, row)
	}
	record(t0)

	t := t0
	for t < t1 {
		next := t + interval
		if next > t1 {
			next = t1
		}
		segStats, segErr := Integrate(f, x, t, next, cfg)
		stats.StepCount += segStats.StepCount
		stats.RejectedCount += segStats.RejectedCount
		stats.EvaluationCount += segStats.EvaluationCount
		stats.LastStepSize = segStats.LastStepSize
		stats.CurrentTime = segStats.CurrentTime
		if segErr != nil {
			return times, values, stats, fmt.Errorf("sampling at t=%v: %w", t, segErr)
		}
		t = next
		record(t)
	}
	return times, values, stats, nil
}
