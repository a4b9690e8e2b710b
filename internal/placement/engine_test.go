package placement

import (
	"math/rand"
	"strings"
	"testing"

	"genofab/internal/evolve"
	"genofab/internal/model"
	"genofab/internal/mutate"
)

func uniformOperators(k int, classes ...model.GCClass) *mutate.Operators {
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
	probs := make(map[model.GCClass]map[string]float64)
	prior := make(model.ClassPrior)
	for _, class := range classes {
		table := make(map[string]float64, len(words))
		for _, w := range words {
			table[w] = 0.25
		}
		probs[class] = table
		prior[class] = 1 / float64(len(classes))
	}
	return &mutate.Operators{Kmer: &model.KmerModel{K: k, Probs: probs}, Prior: prior}
}

func testEngine(catalog map[model.GCClass][]model.RepeatDescriptor, simple map[model.GCClass][]model.SimpleRepeatDescriptor) *Engine {
	return &Engine{
		Evolver: &evolve.Evolver{
			Consensus: model.ConsensusLibrary{"GGG": strings.Repeat("G", 400)},
			Ops:       uniformOperators(4, 37),
			Index:     evolve.BuildAgeIndex(catalog),
		},
		Catalog:       catalog,
		SimpleCatalog: simple,
		Window:        1000,
	}
}

func backgroundBuf(n int) []byte {
	return []byte(strings.Repeat("A", n))
}

var plainCatalog = map[model.GCClass][]model.RepeatDescriptor{
	37: {{
		Family:         "GGG",
		Divergence:     model.Num(0),
		Insertion:      model.Num(0),
		Deletion:       model.Num(0),
		FragmentLength: model.Num(200),
		Breaks:         model.Num(0),
	}},
}

func TestZeroTargetNeverPlaces(t *testing.T) {
	e := testEngine(plainCatalog, nil)
	r := rand.New(rand.NewSource(1))
	buf := backgroundBuf(5000)
	trace := []model.GCClass{37, 37, 37, 37, 37}

	res := e.InsertRepeats(r, buf, trace, 0, 0)
	if len(res.Records) != 0 || res.AchievedPct != 0 {
		t.Fatalf("zero target placed %d records, %.1f%%", len(res.Records), res.AchievedPct)
	}
	if strings.ContainsAny(string(buf), "acgt") {
		t.Fatal("buffer mutated on zero target")
	}

	res = e.InsertSimpleRepeats(r, buf, trace, 0, 0)
	if len(res.Records) != 0 {
		t.Fatalf("zero simple target placed %d records", len(res.Records))
	}
}

func TestInsertRepeatsReachesTarget(t *testing.T) {
	e := testEngine(plainCatalog, nil)
	r := rand.New(rand.NewSource(99))
	buf := backgroundBuf(10000)
	trace := []model.GCClass{37, 37, 37, 37, 37, 37, 37, 37, 37, 37}

	res := e.InsertRepeats(r, buf, trace, 20, 0)
	if res.Exhausted {
		t.Fatal("engine exhausted on an easy target")
	}
	if res.AchievedPct < 20 {
		t.Fatalf("achieved %.1f%% < target 20%%", res.AchievedPct)
	}
	for i, rec := range res.Records {
		if rec.Serial != i+1 {
			t.Fatalf("serial %d at index %d", rec.Serial, i)
		}
		if rec.End-rec.Start != len(rec.Sequence) {
			t.Fatalf("record %d span/sequence mismatch", rec.Serial)
		}
		span := string(buf[rec.Start:rec.End])
		if span != rec.Sequence {
			t.Fatalf("record %d: buffer span %q != record %q", rec.Serial, span, rec.Sequence)
		}
		if span != strings.ToLower(span) {
			t.Fatalf("record %d not lowercased: %q", rec.Serial, span)
		}
	}
	if res.NextSerial != len(res.Records) {
		t.Fatalf("NextSerial = %d, records = %d", res.NextSerial, len(res.Records))
	}
}

func TestNeverOverwritesLowercase(t *testing.T) {
	e := testEngine(plainCatalog, nil)
	r := rand.New(rand.NewSource(5))
	buf := backgroundBuf(6000)
	// Pre-occupied span; the engine must leave it byte-identical.
	for i := 1000; i < 1600; i++ {
		buf[i] = 'a'
	}
	trace := []model.GCClass{37, 37, 37, 37, 37, 37}

	e.InsertRepeats(r, buf, trace, 30, 0)
	for i := 1000; i < 1600; i++ {
		if buf[i] != 'a' {
			t.Fatalf("occupied byte overwritten at %d: %c", i, buf[i])
		}
	}
}

func TestExhaustionTerminates(t *testing.T) {
	// Empty catalog: every attempt fails, the failure counter must stop
	// the loop.
	e := testEngine(map[model.GCClass][]model.RepeatDescriptor{}, nil)
	r := rand.New(rand.NewSource(2))
	buf := backgroundBuf(3000)
	trace := []model.GCClass{37, 37, 37}

	res := e.InsertRepeats(r, buf, trace, 50, 0)
	if !res.Exhausted {
		t.Fatal("expected exhaustion")
	}
	if len(res.Records) != 0 {
		t.Fatalf("records placed from empty catalog: %d", len(res.Records))
	}
}

func TestSimpleRepeatsPlaceTandems(t *testing.T) {
	simple := map[model.GCClass][]model.SimpleRepeatDescriptor{
		37: {{
			Label:      "(CA)n",
			Motif:      "CA",
			Expansion:  model.Num(19),
			Divergence: model.Num(0),
			Indel:      model.Num(0),
		}},
	}
	e := testEngine(map[model.GCClass][]model.RepeatDescriptor{}, simple)
	r := rand.New(rand.NewSource(8))
	buf := backgroundBuf(10000)
	trace := []model.GCClass{37, 37, 37, 37, 37, 37, 37, 37, 37, 37}

	res := e.InsertSimpleRepeats(r, buf, trace, 1, 5)
	if len(res.Records) == 0 {
		t.Fatal("no simple repeats placed")
	}
	if res.Records[0].Serial != 6 {
		t.Fatalf("serial numbering did not continue: %d", res.Records[0].Serial)
	}
	for _, rec := range res.Records {
		if rec.Label != "(CA)n" {
			t.Fatalf("label = %s", rec.Label)
		}
		if rec.Sequence != strings.Repeat("ca", 20) {
			t.Fatalf("tandem sequence = %s", rec.Sequence)
		}
	}
}

func TestShortResultsAreRejected(t *testing.T) {
	catalog := map[model.GCClass][]model.RepeatDescriptor{
		37: {{
			Family:         "GGG",
			Divergence:     model.Num(0),
			Insertion:      model.Num(0),
			Deletion:       model.Num(0),
			FragmentLength: model.Num(5), // below MinInsertLen
			Breaks:         model.Num(0),
		}},
	}
	e := testEngine(catalog, nil)
	r := rand.New(rand.NewSource(4))
	buf := backgroundBuf(3000)
	trace := []model.GCClass{37, 37, 37}

	res := e.InsertRepeats(r, buf, trace, 10, 0)
	if len(res.Records) != 0 {
		t.Fatalf("short inserts placed: %d", len(res.Records))
	}
	if !res.Exhausted {
		t.Fatal("expected exhaustion from short-only catalog")
	}
}
