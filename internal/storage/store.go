package storage

import (
	"context"

	"kinetikos/internal/model"
)

// Store persists solver runs and their sampled trajectories.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveTimeSeries(ctx context.Context, series model.TimeSeries) error
	GetTimeSeries(ctx context.Context, runID string) (model.TimeSeries, bool, error)
}
