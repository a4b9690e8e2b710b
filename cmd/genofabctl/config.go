package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"genofab/internal/dna"
	"genofab/internal/model"
	api "genofab/pkg/genofab"
)

// modelBundle is the on-disk shape of the pre-parsed tables. Numeric
// catalog fields use the "n" / "lo-hi" notation; GC classes are the
// bucket upper bounds as string keys.
type modelBundle struct {
	K           int                                      `json:"k"`
	ClassPrior  map[string]float64                       `json:"class_prior"`
	Transitions map[string]map[string]float64            `json:"gc_transitions"`
	Kmers       map[string]map[string]float64            `json:"kmers"`
	Repeats     map[string][]repeatEntry                 `json:"repeats"`
	Simple      map[string][]simpleEntry                 `json:"simple_repeats"`
	Consensus   map[string]string                        `json:"consensus"`
	Affinity    map[string]map[string]map[string]float64 `json:"affinity"`
}

type repeatEntry struct {
	Family         string `json:"family"`
	Subfamily      string `json:"subfamily"`
	Direction      string `json:"direction"`
	Divergence     string `json:"divergence"`
	Insertion      string `json:"insertion"`
	Deletion       string `json:"deletion"`
	FragmentLength string `json:"fragment_length"`
	Breaks         string `json:"breaks"`
}

type simpleEntry struct {
	Label      string `json:"label"`
	Motif      string `json:"motif"`
	Direction  string `json:"direction"`
	Expansion  string `json:"expansion"`
	Divergence string `json:"divergence"`
	Indel      string `json:"indel"`
}

// loadModels reads a bundle file into the read-only tables the engine
// consumes. Consensus sequences are IUPAC-resolved here, once, with a
// stream seeded independently of the generation stream.
func loadModels(path string, seed int64) (api.Models, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Models{}, err
	}
	var bundle modelBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return api.Models{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if bundle.K <= 0 {
		return api.Models{}, fmt.Errorf("%s: k must be positive", path)
	}

	models := api.Models{
		Kmer:          &model.KmerModel{K: bundle.K, Probs: make(map[model.GCClass]map[string]float64)},
		Transitions:   &model.GCTransitionModel{Rows: make(map[model.GCClass]map[model.GCClass]float64)},
		ClassPrior:    make(model.ClassPrior),
		RepeatCatalog: make(map[model.GCClass][]model.RepeatDescriptor),
		SimpleCatalog: make(map[model.GCClass][]model.SimpleRepeatDescriptor),
		Consensus:     make(model.ConsensusLibrary),
		Affinity:      make(model.InsertAffinityModel),
	}

	for key, probs := range bundle.Kmers {
		class, err := parseClass(key)
		if err != nil {
			return api.Models{}, err
		}
		models.Kmer.Probs[class] = probs
	}
	for key, weight := range bundle.ClassPrior {
		class, err := parseClass(key)
		if err != nil {
			return api.Models{}, err
		}
		models.ClassPrior[class] = weight
	}
	for key, row := range bundle.Transitions {
		class, err := parseClass(key)
		if err != nil {
			return api.Models{}, err
		}
		parsed := make(map[model.GCClass]float64, len(row))
		for toKey, p := range row {
			to, err := parseClass(toKey)
			if err != nil {
				return api.Models{}, err
			}
			parsed[to] = p
		}
		models.Transitions.Rows[class] = parsed
	}

	for key, entries := range bundle.Repeats {
		class, err := parseClass(key)
		if err != nil {
			return api.Models{}, err
		}
		for _, entry := range entries {
			desc, err := entry.descriptor()
			if err != nil {
				return api.Models{}, fmt.Errorf("repeat catalog class %s: %w", key, err)
			}
			models.RepeatCatalog[class] = append(models.RepeatCatalog[class], desc)
		}
	}
	for key, entries := range bundle.Simple {
		class, err := parseClass(key)
		if err != nil {
			return api.Models{}, err
		}
		for _, entry := range entries {
			desc, err := entry.descriptor()
			if err != nil {
				return api.Models{}, fmt.Errorf("simple catalog class %s: %w", key, err)
			}
			models.SimpleCatalog[class] = append(models.SimpleCatalog[class], desc)
		}
	}

	cleaner := rand.New(rand.NewSource(seed ^ 0x636f6e73))
	for family, seq := range bundle.Consensus {
		models.Consensus[family] = dna.CheckBases(cleaner, seq)
	}

	for key, parents := range bundle.Affinity {
		class, err := parseClass(key)
		if err != nil {
			return api.Models{}, err
		}
		models.Affinity[class] = parents
	}
	return models, nil
}

func (e repeatEntry) descriptor() (model.RepeatDescriptor, error) {
	dir, err := model.ParseDirection(e.Direction)
	if err != nil {
		return model.RepeatDescriptor{}, err
	}
	div, err := model.ParseNumOrRange(orZero(e.Divergence))
	if err != nil {
		return model.RepeatDescriptor{}, err
	}
	ins, err := model.ParseNumOrRange(orZero(e.Insertion))
	if err != nil {
		return model.RepeatDescriptor{}, err
	}
	del, err := model.ParseNumOrRange(orZero(e.Deletion))
	if err != nil {
		return model.RepeatDescriptor{}, err
	}
	frag, err := model.ParseNumOrRange(orZero(e.FragmentLength))
	if err != nil {
		return model.RepeatDescriptor{}, err
	}
	breaks, err := model.ParseNumOrRange(orZero(e.Breaks))
	if err != nil {
		return model.RepeatDescriptor{}, err
	}
	return model.RepeatDescriptor{
		Family:         e.Family,
		Subfamily:      e.Subfamily,
		Direction:      dir,
		Divergence:     div,
		Insertion:      ins,
		Deletion:       del,
		FragmentLength: frag,
		Breaks:         breaks,
	}, nil
}

func (e simpleEntry) descriptor() (model.SimpleRepeatDescriptor, error) {
	dir, err := model.ParseDirection(e.Direction)
	if err != nil {
		return model.SimpleRepeatDescriptor{}, err
	}
	expansion, err := model.ParseNumOrRange(orZero(e.Expansion))
	if err != nil {
		return model.SimpleRepeatDescriptor{}, err
	}
	div, err := model.ParseNumOrRange(orZero(e.Divergence))
	if err != nil {
		return model.SimpleRepeatDescriptor{}, err
	}
	indel, err := model.ParseNumOrRange(orZero(e.Indel))
	if err != nil {
		return model.SimpleRepeatDescriptor{}, err
	}
	return model.SimpleRepeatDescriptor{
		Label:      e.Label,
		Motif:      e.Motif,
		Direction:  dir,
		Expansion:  expansion,
		Divergence: div,
		Indel:      indel,
	}, nil
}

func parseClass(key string) (model.GCClass, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("bad GC class key %q: %w", key, err)
	}
	return model.GCClass(n), nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
