// Package export writes solver output for consumption outside the store: a
// compressed delimited time series and human-readable renderings of the
// reaction system.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"kinetikos/internal/model"
)

// WriteCSV writes the time series as delimited text: a time column followed
// by one column per species, one row per sample.
func WriteCSV(w io.Writer, series model.TimeSeries) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, series.Species...)
	if err := cw.Write(header); err != nil {
		return err
	}
	if len(series.Times) != len(series.Values) {
		return fmt.Errorf("time series has %d times but %d rows", len(series.Times), len(series.Values))
	}
	row := make([]string, len(header))
	for i, t := range series.Times {
		if len(series.Values[i]) != len(series.Species) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(series.Values[i]), len(series.Species))
		}
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, v := range series.Values[i] {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVGZ writes the gzip-compressed form of WriteCSV.
func WriteCSVGZ(w io.Writer, series model.TimeSeries) error {
	gz := gzip.NewWriter(w)
	if err := WriteCSV(gz, series); err != nil {
		_ = gz.Close()
		return err
	}
	return gz.Close()
}

// TimeSeriesFile persists the series under dir as <runID>.csv.gz and
// returns the written path.
func TimeSeriesFile(dir string, series model.TimeSeries) (string, error) {
	if series.RunID == "" {
		return "", fmt.Errorf("time series has no run id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, series.RunID+".csv.gz")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteCSVGZ(f, series); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
