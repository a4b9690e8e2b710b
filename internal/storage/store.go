package storage

import (
	"context"

	"genofab/internal/model"
)

// Store persists generated run artifacts across ctl invocations.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunArtifact) error
	GetRun(ctx context.Context, id string) (model.RunArtifact, bool, error)
	ListRuns(ctx context.Context) ([]model.RunArtifact, error)
	DeleteRun(ctx context.Context, id string) error
}
