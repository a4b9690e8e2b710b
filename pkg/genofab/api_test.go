package genofab

import (
	"context"
	"errors"
	"strings"
	"testing"

	"genofab/internal/model"
)

func uniformModels(k int, classes ...model.GCClass) Models {
	words := []string{""}
	for i := 0; i < k; i++ {
		next := make([]string, 0, len(words)*4)
		for _, w := range words {
			for _, b := range "ACGT" {
				next = append(next, w+string(b))
			}
		}
		words = next
	}
	kmer := &model.KmerModel{K: k, Probs: make(map[model.GCClass]map[string]float64)}
	prior := make(model.ClassPrior)
	rows := make(map[model.GCClass]map[model.GCClass]float64)
	for _, class := range classes {
		table := make(map[string]float64, len(words))
		for _, w := range words {
			table[w] = 0.25
		}
		kmer.Probs[class] = table
		prior[class] = 1 / float64(len(classes))
		row := make(map[model.GCClass]float64, len(classes))
		for _, to := range classes {
			row[to] = 1 / float64(len(classes))
		}
		rows[class] = row
	}
	return Models{
		Kmer:        kmer,
		Transitions: &model.GCTransitionModel{Rows: rows},
		ClassPrior:  prior,
		RepeatCatalog: map[model.GCClass][]model.RepeatDescriptor{
			37: {{
				Family:         "GGG",
				Divergence:     model.Num(0),
				Insertion:      model.Num(0),
				Deletion:       model.Num(0),
				FragmentLength: model.Num(200),
				Breaks:         model.Num(0),
			}},
		},
		SimpleCatalog: map[model.GCClass][]model.SimpleRepeatDescriptor{},
		Consensus:     model.ConsensusLibrary{"GGG": strings.Repeat("G", 400)},
		Affinity:      model.InsertAffinityModel{},
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGenerateBatchIsStoredAndExact(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	models := uniformModels(4, 37, 100)

	artifacts, err := client.Generate(ctx, models, GenerateRequest{
		Seed:      1234,
		Length:    1500,
		Window:    500,
		Count:     3,
		RepeatPct: 0,
		SimplePct: 0,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(artifacts))
	}
	for i, artifact := range artifacts {
		if artifact.Length != 1500 || len(artifact.Sequence) != 1500 {
			t.Fatalf("artifact %d length = %d", i, artifact.Length)
		}
		if len(artifact.Records) != 0 {
			t.Fatalf("zero targets produced %d records", len(artifact.Records))
		}
		if artifact.SequenceSerial != i+1 {
			t.Fatalf("sequence serial = %d, want %d", artifact.SequenceSerial, i+1)
		}
		for j := 0; j < len(artifact.Sequence); j++ {
			if !strings.ContainsRune("ACGT", rune(artifact.Sequence[j])) {
				t.Fatalf("artifact %d: bad symbol %q at %d", i, artifact.Sequence[j], j)
			}
		}
	}

	runs, err := client.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("stored runs = %d, want 3", len(runs))
	}
}

func TestGenerateWithRepeatsRecordsInsertions(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	models := uniformModels(4, 37)

	artifacts, err := client.Generate(ctx, models, GenerateRequest{
		Seed:      77,
		Length:    10000,
		Window:    1000,
		RepeatPct: 15,
		SimplePct: 0,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	artifact := artifacts[0]
	if artifact.RepeatPct < 15 {
		t.Fatalf("achieved repeat fraction %.1f%% < 15%%", artifact.RepeatPct)
	}
	if len(artifact.Records) == 0 {
		t.Fatal("no insertion records")
	}
	for _, rec := range artifact.Records {
		span := artifact.Sequence[rec.Start:rec.End]
		if span != rec.Sequence {
			t.Fatalf("record %d span mismatch", rec.Serial)
		}
	}

	got, err := client.Run(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("run lookup: %v", err)
	}
	if got.ID != artifact.ID {
		t.Fatalf("lookup returned %s", got.ID)
	}
}

func TestGenerateValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.Generate(ctx, Models{}, GenerateRequest{Length: 100}); !errors.Is(err, ErrNoModels) {
		t.Fatalf("missing models error = %v", err)
	}
	if _, err := client.Generate(ctx, uniformModels(4, 37), GenerateRequest{Length: 0}); !errors.Is(err, ErrBadLength) {
		t.Fatalf("bad length error = %v", err)
	}
	if _, err := client.Run(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("not found error = %v", err)
	}
}
