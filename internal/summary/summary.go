// Package summary aggregates solver output: cross-replicate statistics of
// stochastic ensembles and time-averaged occupancy of a single trajectory.
package summary

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"kinetikos/internal/model"
	"kinetikos/internal/ssa"
)

// SpeciesSummary is one species' aggregate over an ensemble or trajectory.
type SpeciesSummary struct {
	Name     string  `json:"name"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Final summarizes the end state of every replicate, per species.
func Final(species []string, results []*ssa.Result) ([]SpeciesSummary, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no replicates to summarize")
	}
	out := make([]SpeciesSummary, len(species))
	sample := make([]float64, len(results))
	for i, name := range species {
		for j, r := range results {
			if len(r.Final) != len(species) {
				return nil, fmt.Errorf("replicate %d has %d species, expected %d", j, len(r.Final), len(species))
			}
			sample[j] = float64(r.Final[i])
		}
		mean, err := stats.Mean(sample)
		if err != nil {
			return nil, fmt.Errorf("mean of %s: %w", name, err)
		}
		variance, err := stats.PopulationVariance(sample)
		if err != nil {
			return nil, fmt.Errorf("variance of %s: %w", name, err)
		}
		min, err := stats.Min(sample)
		if err != nil {
			return nil, fmt.Errorf("min of %s: %w", name, err)
		}
		max, err := stats.Max(sample)
		if err != nil {
			return nil, fmt.Errorf("max of %s: %w", name, err)
		}
		out[i] = SpeciesSummary{Name: name, Mean: mean, Variance: variance, Min: min, Max: max}
	}
	return out, nil
}

// TimeAverage summarizes one trajectory per species, weighting each sample
// by the length of the interval it covers, so unevenly informative samples
// do not skew the occupancy estimate.
func TimeAverage(series model.TimeSeries) ([]SpeciesSummary, error) {
	n := len(series.Times)
	if n < 2 {
		return nil, fmt.Errorf("time series needs at least two samples, has %d", n)
	}
	if len(series.Values) != n {
		return nil, fmt.Errorf("time series has %d times but %d rows", n, len(series.Values))
	}

	weights := make([]float64, n)
	for i := 0; i < n-1; i++ {
		dt := series.Times[i+1] - series.Times[i]
		if dt <= 0 {
			return nil, fmt.Errorf("sample times not strictly increasing at index %d", i)
		}
		weights[i] = dt
	}
	// The last sample covers no interval.
	weights[n-1] = 0

	out := make([]SpeciesSummary, len(series.Species))
	column := make([]float64, n)
	for i, name := range series.Species {
		min, max := series.Values[0][i], series.Values[0][i]
		for j := 0; j < n; j++ {
			v := series.Values[j][i]
			column[j] = v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		mean, variance := stat.MeanVariance(column, weights)
		out[i] = SpeciesSummary{Name: name, Mean: mean, Variance: variance, Min: min, Max: max}
	}
	return out, nil
}
