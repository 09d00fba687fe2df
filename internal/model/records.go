package model

// RunRecord describes one solver run for persistence and listing.
type RunRecord struct {
	VersionedRecord
	ID            string             `json:"id"`
	CreatedAtUTC  string             `json:"created_at_utc"`
	Kind          string             `json:"kind"` // deterministic | stochastic
	Model         string             `json:"model"`
	Seed          int64              `json:"seed,omitempty"`
	Overrides     map[string]float64 `json:"overrides,omitempty"`
	Outcome       string             `json:"outcome"`
	SimulatedTime float64            `json:"simulated_time"`
}

// TimeSeries is a tabular trajectory: one row of species values per sample
// time, columns in declared species order.
type TimeSeries struct {
	VersionedRecord
	RunID   string      `json:"run_id"`
	Species []string    `json:"species"`
	Times   []float64   `json:"times"`
	Values  [][]float64 `json:"values"`
}

// Sample appends one row. Values are copied so callers may reuse buffers.
func (ts *TimeSeries) Sample(t float64, x []float64) {
	row := make([]float64, len(x))
	copy(row, x)
	ts.Times = append(ts.Times, t)
	ts.Values = append(ts.Values, row)
}
