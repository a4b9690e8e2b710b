// Package background produces the raw genomic background: a GC-bin-aware
// order-k Markov chain emitting uppercase {A,C,G,T}, window by window,
// with the GC class re-drawn between windows.
package background

import (
	"errors"
	"fmt"
	"math/rand"

	"genofab/internal/model"
)

var (
	ErrEmptyModel = errors.New("k-mer model is empty")
	ErrBadLength  = errors.New("target length must be positive")
	ErrBadWindow  = errors.New("window size must be positive")
)

var alphabet = []byte{'A', 'C', 'G', 'T'}

type Generator struct {
	Kmer        *model.KmerModel
	Transitions *model.GCTransitionModel
}

// Generate emits exactly targetLen bases and the per-window GC-class trace;
// trace entry i covers buffer span [i*window, (i+1)*window).
func (g *Generator) Generate(r *rand.Rand, initial model.GCClass, targetLen, window int) ([]byte, []model.GCClass, error) {
	if g.Kmer.Empty() {
		return nil, nil, ErrEmptyModel
	}
	if targetLen <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrBadLength, targetLen)
	}
	if window <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrBadWindow, window)
	}

	buf := make([]byte, 0, targetLen+window)
	var trace []model.GCClass
	class := initial
	for len(buf) < targetLen {
		trace = append(trace, class)
		for i := 0; i < window; i++ {
			buf = append(buf, g.nextBase(r, class, buf))
		}
		class = g.Transitions.Next(r, class)
	}

	if len(buf) > targetLen {
		buf = buf[:targetLen]
	}
	for len(buf) > 0 && len(buf) < targetLen {
		buf = pad(r, buf, targetLen)
	}
	return buf, trace, nil
}

// nextBase extends buf by one base: the trailing (k-1)-base context plus
// each candidate base forms the k-mer looked up in the model, and the
// candidates are walked in fixed order accumulating probability until the
// cumulative sum meets the draw. When every lookup misses, the walk falls
// through to the last alphabet symbol.
func (g *Generator) nextBase(r *rand.Rand, class model.GCClass, buf []byte) byte {
	k := g.Kmer.K
	if len(buf) < k-1 {
		// No full context yet; the chain has nothing to condition on.
		return alphabet[r.Intn(len(alphabet))]
	}
	ctx := string(buf[len(buf)-(k-1):])
	u := r.Float64()
	cum := 0.0
	for _, b := range alphabet {
		cum += g.Kmer.Prob(class, ctx+string(b))
		if cum >= u {
			return b
		}
	}
	return alphabet[len(alphabet)-1]
}

// pad duplicates a randomly chosen existing substring of the missing
// length. Only reachable when a caller-supplied buffer underruns; the
// window loop above always overruns.
func pad(r *rand.Rand, buf []byte, targetLen int) []byte {
	missing := targetLen - len(buf)
	if missing > len(buf) {
		missing = len(buf)
	}
	start := r.Intn(len(buf) - missing + 1)
	return append(buf, buf[start:start+missing]...)
}

// ClassAt resolves the GC class active at a buffer offset from the trace.
func ClassAt(trace []model.GCClass, window, offset int) (model.GCClass, bool) {
	if window <= 0 || offset < 0 {
		return 0, false
	}
	i := offset / window
	if i >= len(trace) {
		if len(trace) == 0 {
			return 0, false
		}
		i = len(trace) - 1
	}
	return trace[i], true
}
