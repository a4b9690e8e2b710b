// Package random holds the draw primitives shared by every generation
// component. All functions take an explicit *rand.Rand so a run is fully
// reproducible from one seed.
package random

import (
	"math/rand"
	"sort"
)

// WeightedIndex draws an index proportional to weights, walking the slice
// in order and accumulating until the cumulative sum meets the draw. When
// every weight is zero the last index wins, matching the generator's
// last-symbol tie bias. Returns -1 for an empty slice.
func WeightedIndex(r *rand.Rand, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	u := r.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if cum >= u && w > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// WeightedKey draws a key from a weight map, skipping keys in excluded.
// Iteration order is fixed by sorting so equal seeds give equal draws.
func WeightedKey(r *rand.Rand, weights map[string]float64, excluded map[string]bool) (string, bool) {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		if excluded[k] {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = weights[k]
	}
	return keys[WeightedIndex(r, values)], true
}

// Positions draws the operator candidate list: ceil(n/2)+1 distinct
// positions over [0,n), consumed front-to-back by the caller. The partial
// Fisher-Yates keeps the draw free of left-to-right bias while bounding
// per-round work to roughly half the sequence.
func Positions(r *rand.Rand, n int) []int {
	if n <= 0 {
		return nil
	}
	count := (n+1)/2 + 1
	if count > n {
		count = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < count; i++ {
		j := i + r.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}

// Coin is a fair boolean draw.
func Coin(r *rand.Rand) bool {
	return r.Intn(2) == 0
}

// Between draws a uniform value in [lo, hi].
func Between(r *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}
