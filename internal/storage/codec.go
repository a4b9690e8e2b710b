package storage

import (
	"encoding/json"
	"errors"

	"genofab/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.RunArtifact) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunArtifact, error) {
	var run model.RunArtifact
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunArtifact{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunArtifact{}, err
	}
	return run, nil
}

// Stamp sets the current schema and codec versions on a fresh artifact.
func Stamp(run *model.RunArtifact) {
	run.SchemaVersion = CurrentSchemaVersion
	run.CodecVersion = CurrentCodecVersion
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
