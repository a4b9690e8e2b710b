package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genofab/internal/model"
)

const bundleJSON = `{
  "k": 4,
  "class_prior": {"37": 0.6, "100": 0.4},
  "gc_transitions": {"37": {"37": 0.9, "100": 0.1}, "100": {"37": 0.2, "100": 0.8}},
  "kmers": {"37": {"ACGT": 0.25}, "100": {"ACGT": 0.25}},
  "repeats": {"37": [{
    "family": "AluY",
    "subfamily": "SINE",
    "direction": "rand",
    "divergence": "5-20",
    "insertion": "1",
    "deletion": "2",
    "fragment_length": "50-300",
    "breaks": "1-3"
  }]},
  "simple_repeats": {"37": [{
    "label": "(CA)n",
    "motif": "CA",
    "direction": "+",
    "expansion": "5-30",
    "divergence": "0-10",
    "indel": "0-5"
  }]},
  "consensus": {"AluY": "GGCCRNGCGCYG"},
  "affinity": {"37": {"AluY": {"AluY": 1, "L1": 3}}}
}`

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func TestLoadModels(t *testing.T) {
	models, err := loadModels(writeBundle(t, bundleJSON), 1)
	if err != nil {
		t.Fatalf("loadModels: %v", err)
	}

	if models.Kmer.K != 4 {
		t.Fatalf("k = %d", models.Kmer.K)
	}
	if models.Kmer.Prob(37, "ACGT") != 0.25 {
		t.Fatal("k-mer table not loaded")
	}
	if models.ClassPrior[100] != 0.4 {
		t.Fatal("class prior not loaded")
	}
	if models.Transitions.Rows[37][100] != 0.1 {
		t.Fatal("transition row not loaded")
	}

	repeats := models.RepeatCatalog[37]
	if len(repeats) != 1 {
		t.Fatalf("repeat catalog size = %d", len(repeats))
	}
	desc := repeats[0]
	if desc.Family != "AluY" || desc.Subfamily != "SINE" || desc.Direction != model.RandomStrand {
		t.Fatalf("descriptor = %+v", desc)
	}
	if desc.Divergence.Min != 5 || desc.Divergence.Max != 20 {
		t.Fatalf("divergence range = %+v", desc.Divergence)
	}
	if !desc.Insertion.Fixed() || desc.Insertion.Min != 1 {
		t.Fatalf("insertion = %+v", desc.Insertion)
	}

	simple := models.SimpleCatalog[37]
	if len(simple) != 1 || simple[0].Motif != "CA" {
		t.Fatalf("simple catalog = %+v", simple)
	}

	// IUPAC codes are resolved at load time.
	consensus := models.Consensus["AluY"]
	if len(consensus) != 12 || strings.ContainsAny(consensus, "RNY") {
		t.Fatalf("consensus not cleaned: %q", consensus)
	}

	if models.Affinity[37]["AluY"]["L1"] != 3 {
		t.Fatal("affinity not loaded")
	}
}

func TestLoadModelsRejectsBadBundles(t *testing.T) {
	if _, err := loadModels(writeBundle(t, `{"k": 0}`), 1); err == nil {
		t.Fatal("expected error for missing k")
	}
	if _, err := loadModels(writeBundle(t, `{not json`), 1); err == nil {
		t.Fatal("expected error for bad json")
	}
	bad := strings.Replace(bundleJSON, `"5-20"`, `"20-5"`, 1)
	if _, err := loadModels(writeBundle(t, bad), 1); err == nil {
		t.Fatal("expected error for inverted range")
	}
	badClass := strings.Replace(bundleJSON, `"kmers": {"37"`, `"kmers": {"gc37"`, 1)
	if _, err := loadModels(writeBundle(t, badClass), 1); err == nil {
		t.Fatal("expected error for bad class key")
	}
	if _, err := loadModels(filepath.Join(t.TempDir(), "absent.json"), 1); err == nil {
		t.Fatal("expected error for missing file")
	}
}
