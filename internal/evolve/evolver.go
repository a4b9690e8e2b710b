// Package evolve ages repeat templates into placed-ready instances: it
// extracts a consensus fragment, applies the mutation operators at the
// descriptor's rates, and for fragmented interspersed repeats nests
// strictly younger child insertions inside the evolving fragment.
package evolve

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"genofab/internal/dna"
	"genofab/internal/model"
	"genofab/internal/mutate"
	"genofab/internal/random"
)

const (
	// InsCyc bounds nested-child attempts per parent.
	InsCyc = 100
	// childCeilDrop and childCeilFloor derive a child's age ceiling from
	// its parent's age: max(age-20, 10).
	childCeilDrop  = 20.0
	childCeilFloor = 10.0
	// nestMinAge: parents at or under this age never fragment.
	nestMinAge = 10.0
)

var (
	ErrMalformedDescriptor = errors.New("malformed descriptor")
	ErrUnknownFamily       = errors.New("no consensus for family")
	ErrAgeCeiling          = errors.New("descriptor age exceeds ceiling")
	ErrNoEligibleChild     = errors.New("no eligible child family")
)

type Evolver struct {
	Consensus model.ConsensusLibrary
	Ops       *mutate.Operators
	Index     *AgeIndex
	Affinity  model.InsertAffinityModel
	// Fragmentation enables nested child insertions.
	Fragmentation bool
}

// Evolved is one aged repeat instance ready for placement.
type Evolved struct {
	Sequence  []byte
	Label     string
	Alignment mutate.Aligned
	Fragments []model.Fragment
	Age       float64

	// Applied edit counts; demand the operators could not place is
	// dropped by policy, so these are the observable truth.
	Transitions   int
	Transversions int
	Insertions    int
	Deletions     int
}

// EvolveRepeat ages one interspersed-repeat descriptor under ageCeiling.
// The ceiling is how nested children are kept strictly younger than their
// parents; top-level callers pass +Inf.
func (e *Evolver) EvolveRepeat(r *rand.Rand, desc model.RepeatDescriptor, class model.GCClass, ageCeiling float64) (*Evolved, error) {
	if err := validateRepeat(desc); err != nil {
		return nil, err
	}
	cons, ok := e.Consensus[desc.Family]
	if !ok || cons == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, desc.Family)
	}

	div := desc.Divergence.Resolve(r)
	ins := desc.Insertion.Resolve(r)
	del := desc.Deletion.Resolve(r)
	breaks := int(desc.Breaks.Resolve(r))
	fragLen := int(desc.FragmentLength.Resolve(r))
	if fragLen < 1 {
		fragLen = 1
	}
	if fragLen > len(cons) {
		fragLen = len(cons)
	}

	age := model.Age(div, ins, del, breaks)
	if age > ageCeiling {
		return nil, fmt.Errorf("%w: %.1f > %.1f", ErrAgeCeiling, age, ageCeiling)
	}

	offset := 0
	if fragLen < len(cons) {
		offset = r.Intn(len(cons) - fragLen + 1)
	}
	frag := orient(r, []byte(cons[offset:offset+fragLen]), desc.Direction)

	ev := &Evolved{Label: desc.Label(), Age: age}
	aln := mutate.NewAligned(frag)
	e.applyRates(r, &aln, class, fragLen, div, ins, del, ev)

	ev.Fragments = []model.Fragment{{Length: len(aln.Sequence()), Label: ev.Label}}
	if e.Fragmentation && breaks > 1 && age > nestMinAge {
		e.nest(r, &aln, class, desc.Family, age, breaks, ev)
	}

	ev.Alignment = aln
	ev.Sequence = aln.Sequence()
	return ev, nil
}

// EvolveSimple ages a tandem low-complexity motif: the seed repeated
// expansion+1 times, with the indel budget split randomly between
// insertions and deletions. Simple repeats never nest.
func (e *Evolver) EvolveSimple(r *rand.Rand, desc model.SimpleRepeatDescriptor, class model.GCClass) (*Evolved, error) {
	if err := validateSimple(desc); err != nil {
		return nil, err
	}

	expansion := int(desc.Expansion.Resolve(r))
	if expansion < 0 {
		expansion = 0
	}
	seq := orient(r, []byte(strings.Repeat(desc.Motif, expansion+1)), desc.Direction)

	div := desc.Divergence.Resolve(r)
	indel := desc.Indel.Resolve(r)
	indelCount := int(math.Round(indel * float64(len(seq)) / 100))
	insCount, delCount := 0, 0
	for i := 0; i < indelCount; i++ {
		if random.Coin(r) {
			insCount++
		} else {
			delCount++
		}
	}

	ev := &Evolved{Label: desc.Label}
	aln := mutate.NewAligned(seq)
	e.applyCounts(r, &aln, class, divCounts(div, len(seq)), insCount, delCount, ev)

	ev.Fragments = []model.Fragment{{Length: len(aln.Sequence()), Label: ev.Label}}
	ev.Alignment = aln
	ev.Sequence = aln.Sequence()
	return ev, nil
}

// GetInsert draws a child descriptor for nesting: affinity-weighted family
// draws, skipping families already rejected, bounded at mutate.MutCyc
// distinct tries.
func (e *Evolver) GetInsert(r *rand.Rand, class model.GCClass, parent string, ageThreshold float64) (model.RepeatDescriptor, error) {
	weights := e.Affinity.Children(class, parent)
	if len(weights) == 0 {
		return model.RepeatDescriptor{}, fmt.Errorf("%w: parent %s", ErrNoEligibleChild, parent)
	}
	rejected := make(map[string]bool)
	for try := 0; try < mutate.MutCyc; try++ {
		family, ok := random.WeightedKey(r, weights, rejected)
		if !ok {
			break
		}
		if desc, ok := e.Index.YoungestEligible(r, class, family, ageThreshold); ok {
			return desc, nil
		}
		rejected[family] = true
	}
	return model.RepeatDescriptor{}, fmt.Errorf("%w: parent %s", ErrNoEligibleChild, parent)
}

// nest splices up to breaks younger children into the evolving parent,
// spending at most InsCyc draws.
func (e *Evolver) nest(r *rand.Rand, aln *mutate.Aligned, class model.GCClass, family string, age float64, breaks int, ev *Evolved) {
	ceiling := math.Max(age-childCeilDrop, childCeilFloor)
	successes := 0
	for try := 0; try < InsCyc && successes < breaks; try++ {
		seq := aln.Sequence()
		if len(seq) < 2 {
			return
		}
		offset := 1 + r.Intn(len(seq)-1)

		childDesc, err := e.GetInsert(r, class, family, ceiling)
		if err != nil {
			continue
		}
		child, err := e.EvolveRepeat(r, childDesc, class, ceiling)
		if err != nil {
			continue
		}
		if len(child.Sequence) == 0 {
			continue
		}

		cols := columnsOf(aln)
		aln.Splice(cols[offset], child.Alignment)
		ev.Fragments = spliceFragments(ev.Fragments, offset, child.Fragments)
		ev.Label += "," + child.Label
		ev.Transitions += child.Transitions
		ev.Transversions += child.Transversions
		ev.Insertions += child.Insertions
		ev.Deletions += child.Deletions
		successes++
	}
}

func (e *Evolver) applyRates(r *rand.Rand, aln *mutate.Aligned, class model.GCClass, length int, div, ins, del float64, ev *Evolved) {
	insCount := int(math.Round(ins * float64(length) / 100))
	delCount := int(math.Round(del * float64(length) / 100))
	e.applyCounts(r, aln, class, divCounts(div, length), insCount, delCount, ev)
}

// applyCounts runs the operators in the fixed order transition ->
// transversion -> insertion -> deletion.
func (e *Evolver) applyCounts(r *rand.Rand, aln *mutate.Aligned, class model.GCClass, subs [2]int, insCount, delCount int, ev *Evolved) {
	ev.Transitions += e.Ops.Transitions(r, aln, subs[0], class)
	ev.Transversions += e.Ops.Transversions(r, aln, subs[1], class)
	ev.Insertions += e.Ops.Insertions(r, aln, insCount, class)
	ev.Deletions += e.Ops.Deletions(r, aln, delCount, class)
}

// divCounts derives the substitution demand from a divergence rate, split
// evenly; an odd count gives the extra edit to the transition operator.
func divCounts(div float64, length int) [2]int {
	subs := int(math.Round(div * float64(length) / 100))
	return [2]int{subs/2 + subs%2, subs / 2}
}

func orient(r *rand.Rand, seq []byte, dir model.Direction) []byte {
	switch dir {
	case model.Reverse:
		return dna.RevComp(seq)
	case model.RandomStrand:
		if random.Coin(r) {
			return dna.RevComp(seq)
		}
	}
	return seq
}

func validateRepeat(d model.RepeatDescriptor) error {
	if d.Family == "" {
		return fmt.Errorf("%w: missing family", ErrMalformedDescriptor)
	}
	for _, n := range []model.NumOrRange{d.Divergence, d.Insertion, d.Deletion, d.FragmentLength, d.Breaks} {
		if !n.Valid() || n.Min < 0 {
			return fmt.Errorf("%w: %s", ErrMalformedDescriptor, d.Family)
		}
	}
	if d.FragmentLength.Max < 1 {
		return fmt.Errorf("%w: %s fragment length", ErrMalformedDescriptor, d.Family)
	}
	return nil
}

func validateSimple(d model.SimpleRepeatDescriptor) error {
	if d.Motif == "" {
		return fmt.Errorf("%w: missing motif", ErrMalformedDescriptor)
	}
	for _, n := range []model.NumOrRange{d.Expansion, d.Divergence, d.Indel} {
		if !n.Valid() || n.Min < 0 {
			return fmt.Errorf("%w: %s", ErrMalformedDescriptor, d.Label)
		}
	}
	return nil
}

func columnsOf(a *mutate.Aligned) []int {
	cols := make([]int, 0, len(a.Mutated))
	for i, c := range a.Mutated {
		if c != mutate.Gap {
			cols = append(cols, i)
		}
	}
	return cols
}

// spliceFragments splits the provenance list at a sequence offset and
// inserts the child's fragments there, keeping lengths summing to the
// final sequence length.
func spliceFragments(frags []model.Fragment, offset int, child []model.Fragment) []model.Fragment {
	out := make([]model.Fragment, 0, len(frags)+len(child)+1)
	pos := 0
	spliced := false
	for _, f := range frags {
		if !spliced && offset >= pos && offset < pos+f.Length {
			left := offset - pos
			right := f.Length - left
			if left > 0 {
				out = append(out, model.Fragment{Length: left, Label: f.Label})
			}
			out = append(out, child...)
			if right > 0 {
				out = append(out, model.Fragment{Length: right, Label: f.Label})
			}
			spliced = true
		} else {
			out = append(out, f)
		}
		pos += f.Length
	}
	if !spliced {
		out = append(out, child...)
	}
	return out
}
