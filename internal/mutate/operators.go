// Package mutate implements the four position-targeted edit primitives
// that age a repeat fragment: transition, transversion, insertion and
// deletion. Each operator demands a count of edits, accepts or rejects
// candidate positions on local k-mer plausibility, and retries unmet
// demand over bounded rounds with a freshly drawn GC class per round.
package mutate

import (
	"math/rand"

	"genofab/internal/model"
	"genofab/internal/random"
)

const (
	// MutCyc bounds the retry rounds; demand still unmet afterwards is
	// dropped silently.
	MutCyc = 10
	// ForceRound is the round at which acceptance tests are waived and
	// edits are forced through.
	ForceRound = 10

	probEps = 1e-9
)

var alphabet = []byte{'A', 'C', 'G', 'T'}

var (
	transitionOf   = map[byte]byte{'A': 'G', 'G': 'A', 'T': 'C', 'C': 'T'}
	transversionOf = map[byte]byte{'A': 'T', 'T': 'A', 'G': 'C', 'C': 'G'}
)

type Operators struct {
	Kmer  *model.KmerModel
	Prior model.ClassPrior
}

// Transitions applies up to demand A<->G / T<->C substitutions and returns
// how many landed.
func (o *Operators) Transitions(r *rand.Rand, a *Aligned, demand int, class model.GCClass) int {
	return o.substitute(r, a, demand, class, transitionOf, MarkTransition)
}

// Transversions applies up to demand A<->T / G<->C substitutions.
func (o *Operators) Transversions(r *rand.Rand, a *Aligned, demand int, class model.GCClass) int {
	return o.substitute(r, a, demand, class, transversionOf, MarkTransversion)
}

func (o *Operators) substitute(r *rand.Rand, a *Aligned, demand int, class model.GCClass, swap map[byte]byte, mark byte) int {
	k := o.Kmer.K
	return o.rounds(r, a, demand, class, func(round int, cl model.GCClass, seq []byte, cols []int, p int) bool {
		newBase, ok := swap[seq[p]]
		if !ok {
			return false
		}
		if a.Match[cols[p]] != MarkKeep {
			return false
		}
		// Both the k-mer ending at p and the one shifted right by one
		// must exist in full.
		if p-k+1 < 0 || p+2 > len(seq) {
			return false
		}
		if round < ForceRound {
			oldEnd := string(seq[p-k+1 : p+1])
			newEnd := mutateAt(seq[p-k+1:p+1], k-1, newBase)
			oldShift := string(seq[p-k+2 : p+2])
			newShift := mutateAt(seq[p-k+2:p+2], k-2, newBase)
			if o.Kmer.Prob(cl, newEnd) <= o.Kmer.Prob(cl, oldEnd)+probEps {
				return false
			}
			if o.Kmer.Prob(cl, newShift) <= o.Kmer.Prob(cl, oldShift)+probEps {
				return false
			}
		}
		a.Mutated[cols[p]] = newBase
		a.Match[cols[p]] = mark
		return true
	})
}

// Insertions inserts up to demand bases, each sampled from the k-mer model
// conditioned on the (k-1)-context ending at the candidate position. The
// acceptance test compares the sampling draw itself against the probability
// of the context extended by the new base; insertions therefore favor
// low-probability neighborhoods. Kept as documented upstream.
func (o *Operators) Insertions(r *rand.Rand, a *Aligned, demand int, class model.GCClass) int {
	k := o.Kmer.K
	return o.rounds(r, a, demand, class, func(round int, cl model.GCClass, seq []byte, cols []int, p int) bool {
		if p-k+2 < 0 {
			return false
		}
		ctx := string(seq[p-k+2 : p+1])
		u := r.Float64()
		newBase := alphabet[len(alphabet)-1]
		cum := 0.0
		for _, b := range alphabet {
			cum += o.Kmer.Prob(cl, ctx+string(b))
			if cum >= u {
				newBase = b
				break
			}
		}
		if round < ForceRound && u <= o.Kmer.Prob(cl, ctx+string(newBase)) {
			return false
		}
		col := cols[p] + 1
		a.insertColumn(col, Gap, MarkInsertion, newBase)
		for q := p + 1; q < len(cols); q++ {
			cols[q]++
		}
		return true
	})
}

// Deletions removes up to demand bases. A base goes only if the context
// merged across it is at least as plausible as the context it ends, so
// deletions avoid tearing high-probability words. Deleted columns stay in
// the alignment as sentinels; Sequence strips them.
func (o *Operators) Deletions(r *rand.Rand, a *Aligned, demand int, class model.GCClass) int {
	k := o.Kmer.K
	return o.rounds(r, a, demand, class, func(round int, cl model.GCClass, seq []byte, cols []int, p int) bool {
		if a.Match[cols[p]] != MarkKeep {
			return false
		}
		if p-k+1 < 0 || p+2 > len(seq) {
			return false
		}
		if round < ForceRound {
			old := string(seq[p-k+1 : p+1])
			merged := string(seq[p-k+1:p]) + string(seq[p+1])
			if o.Kmer.Prob(cl, merged) < o.Kmer.Prob(cl, old) {
				return false
			}
		}
		a.Mutated[cols[p]] = Gap
		a.Match[cols[p]] = MarkDeletion
		return true
	})
}

// rounds runs the shared retry machinery: per round, draw the candidate
// positions once and consume them front-to-back; carry unmet demand into
// the next round under a freshly drawn GC class. Positions index the
// sequence as it stood at the top of the round, so apply callbacks must
// not reorder earlier positions (insertions shift cols instead).
func (o *Operators) rounds(r *rand.Rand, a *Aligned, demand int, class model.GCClass, apply func(round int, class model.GCClass, seq []byte, cols []int, p int) bool) int {
	applied := 0
	for round := 0; round <= MutCyc && applied < demand; round++ {
		if round > 0 {
			class = o.freshClass(r, class)
		}
		seq := a.Sequence()
		if len(seq) == 0 {
			break
		}
		cols := a.columns()
		for _, p := range random.Positions(r, len(seq)) {
			if applied >= demand {
				break
			}
			if apply(round, class, seq, cols, p) {
				applied++
			}
		}
	}
	return applied
}

func (o *Operators) freshClass(r *rand.Rand, current model.GCClass) model.GCClass {
	if class, ok := o.Prior.Draw(r); ok {
		return class
	}
	return current
}

func mutateAt(window []byte, i int, b byte) string {
	out := append([]byte(nil), window...)
	out[i] = b
	return string(out)
}
