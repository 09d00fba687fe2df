package storage

import (
	"encoding/json"
	"errors"

	"kinetikos/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func stamp(v *model.VersionedRecord) {
	if v.SchemaVersion == 0 {
		v.SchemaVersion = CurrentSchemaVersion
	}
	if v.CodecVersion == 0 {
		v.CodecVersion = CurrentCodecVersion
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	stamp(&run.VersionedRecord)
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeTimeSeries(series model.TimeSeries) ([]byte, error) {
	stamp(&series.VersionedRecord)
	return json.Marshal(series)
}

func DecodeTimeSeries(data []byte) (model.TimeSeries, error) {
	var series model.TimeSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return model.TimeSeries{}, err
	}
	if err := checkVersion(series.VersionedRecord); err != nil {
		return model.TimeSeries{}, err
	}
	return series, nil
}
