package model

import (
	"math/rand"
	"sort"
)

// KmerModel maps, per GC class, a k-length base string to the conditional
// probability of its final base given its (k-1)-base prefix. Built once by
// the loading layer, read-only afterwards.
type KmerModel struct {
	K     int
	Probs map[GCClass]map[string]float64
}

// Prob returns the stored probability, or 0 for an unknown k-mer or class.
func (m *KmerModel) Prob(class GCClass, kmer string) float64 {
	if m == nil {
		return 0
	}
	return m.Probs[class][kmer]
}

func (m *KmerModel) Empty() bool {
	return m == nil || m.K <= 0 || len(m.Probs) == 0
}

// GCTransitionModel maps a GC class to a distribution over successor
// classes, applied once per generation window.
type GCTransitionModel struct {
	Rows map[GCClass]map[GCClass]float64
}

// Next draws the successor class. A missing or empty row keeps the current
// class, so an incomplete table degrades to a constant-GC chain rather than
// failing mid-sequence.
func (m *GCTransitionModel) Next(r *rand.Rand, current GCClass) GCClass {
	if m == nil {
		return current
	}
	row := m.Rows[current]
	if len(row) == 0 {
		return current
	}
	classes := sortedClasses(row)
	u := r.Float64()
	cum := 0.0
	for _, c := range classes {
		cum += row[c]
		if cum >= u {
			return c
		}
	}
	return classes[len(classes)-1]
}

// ClassPrior is the normalized probability of landing in each GC class,
// derived by the loading layer from the k-mer tables.
type ClassPrior map[GCClass]float64

// Draw samples a class from the prior; ok is false for an empty prior.
func (p ClassPrior) Draw(r *rand.Rand) (GCClass, bool) {
	if len(p) == 0 {
		return 0, false
	}
	classes := sortedClasses(p)
	u := r.Float64()
	cum := 0.0
	for _, c := range classes {
		cum += p[c]
		if cum >= u {
			return c, true
		}
	}
	return classes[len(classes)-1], true
}

// ConsensusLibrary maps a repeat family name to its cleaned consensus.
type ConsensusLibrary map[string]string

// InsertAffinityModel governs which repeat families nest inside which:
// GC class -> parent family -> child family -> relative frequency.
type InsertAffinityModel map[GCClass]map[string]map[string]float64

// Children returns the child-family distribution for a parent in a class.
func (m InsertAffinityModel) Children(class GCClass, parent string) map[string]float64 {
	return m[class][parent]
}

func sortedClasses[V any](m map[GCClass]V) []GCClass {
	classes := make([]GCClass, 0, len(m))
	for c := range m {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}
