// Package genofab is the public client for generating artificial genomic
// sequence: background synthesis, repeat evolution and placement, with
// artifacts persisted to the configured store.
package genofab

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"genofab/internal/background"
	"genofab/internal/evolve"
	"genofab/internal/model"
	"genofab/internal/mutate"
	"genofab/internal/placement"
	"genofab/internal/storage"
)

// DrawTarget asks the placement engine to draw its own target fraction.
const DrawTarget = placement.DrawTarget

var (
	ErrNoModels  = errors.New("models are required")
	ErrNotFound  = errors.New("run not found")
	ErrBadLength = errors.New("length must be positive")
)

type Options struct {
	StoreKind string
	DBPath    string
}

// Models bundles the pre-parsed, read-only tables the engine consumes.
// The loading layer owns parsing and validation of the raw files.
type Models struct {
	Kmer          *model.KmerModel
	Transitions   *model.GCTransitionModel
	ClassPrior    model.ClassPrior
	RepeatCatalog map[model.GCClass][]model.RepeatDescriptor
	SimpleCatalog map[model.GCClass][]model.SimpleRepeatDescriptor
	Consensus     model.ConsensusLibrary
	Affinity      model.InsertAffinityModel
}

type GenerateRequest struct {
	Seed   int64
	Length int
	Window int
	// InitialGC seeds the first window's class; zero or negative draws
	// it from the class prior.
	InitialGC model.GCClass
	// Count batches N independent sequences from one seed.
	Count int
	// RepeatPct / SimplePct are target repeat fractions in percent;
	// DrawTarget lets the engine draw them.
	RepeatPct     float64
	SimplePct     float64
	Fragmentation bool
}

type Client struct {
	store storage.Store
}

func New(ctx context.Context, opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// NewWithStore wires an already-initialized store; used by tests and by
// callers sharing a store across clients.
func NewWithStore(store storage.Store) *Client {
	return &Client{store: store}
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Generate produces req.Count sequences, persisting and returning one
// artifact per sequence. Per-sequence state (buffer, GC trace, insertion
// records, serials) is fresh for every sequence; model tables are shared.
func (c *Client) Generate(ctx context.Context, models Models, req GenerateRequest) ([]model.RunArtifact, error) {
	if models.Kmer.Empty() {
		return nil, fmt.Errorf("%w: k-mer model", ErrNoModels)
	}
	if req.Length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, req.Length)
	}
	if req.Window <= 0 {
		req.Window = 1000
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	r := rand.New(rand.NewSource(req.Seed))
	gen := &background.Generator{Kmer: models.Kmer, Transitions: models.Transitions}
	evolver := &evolve.Evolver{
		Consensus:     models.Consensus,
		Ops:           &mutate.Operators{Kmer: models.Kmer, Prior: models.ClassPrior},
		Index:         evolve.BuildAgeIndex(models.RepeatCatalog),
		Affinity:      models.Affinity,
		Fragmentation: req.Fragmentation,
	}
	engine := &placement.Engine{
		Evolver:       evolver,
		Catalog:       models.RepeatCatalog,
		SimpleCatalog: models.SimpleCatalog,
		Window:        req.Window,
	}

	artifacts := make([]model.RunArtifact, 0, count)
	for i := 0; i < count; i++ {
		initial := req.InitialGC
		if initial <= 0 {
			if class, ok := models.ClassPrior.Draw(r); ok {
				initial = class
			}
		}

		buf, trace, err := gen.Generate(r, initial, req.Length, req.Window)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}

		repeats := engine.InsertRepeats(r, buf, trace, req.RepeatPct, 0)
		simple := engine.InsertSimpleRepeats(r, buf, trace, req.SimplePct, repeats.NextSerial)

		artifact := model.RunArtifact{
			ID:             uuid.NewString(),
			Seed:           req.Seed,
			Length:         len(buf),
			Sequence:       string(buf),
			Records:        append(repeats.Records, simple.Records...),
			RepeatPct:      repeats.AchievedPct,
			SimplePct:      simple.AchievedPct,
			CreatedAtUnix:  time.Now().Unix(),
			SequenceSerial: i + 1,
		}
		storage.Stamp(&artifact)
		if err := c.store.SaveRun(ctx, artifact); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

func (c *Client) Runs(ctx context.Context) ([]model.RunArtifact, error) {
	return c.store.ListRuns(ctx)
}

func (c *Client) Run(ctx context.Context, id string) (model.RunArtifact, error) {
	run, ok, err := c.store.GetRun(ctx, id)
	if err != nil {
		return model.RunArtifact{}, err
	}
	if !ok {
		return model.RunArtifact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, nil
}

func (c *Client) DeleteRun(ctx context.Context, id string) error {
	return c.store.DeleteRun(ctx, id)
}
