package mutate

import "genofab/internal/model"

// Gap marks an inserted column on the consensus line and a deleted column
// on the mutated line. Deletion columns double as the sentinel the deletion
// operator leaves behind; Sequence strips them.
const Gap = '-'

// Match-line annotations.
const (
	MarkKeep         = '|'
	MarkTransition   = 'i'
	MarkTransversion = 'v'
	MarkInsertion    = 'n'
	MarkDeletion     = 'd'
)

// Aligned is the three-line working alignment of one evolving fragment.
// The lines always have equal length; all splices happen in lockstep.
type Aligned struct {
	Consensus []byte
	Match     []byte
	Mutated   []byte
}

// NewAligned seeds the triple from a fragment: consensus and mutated carry
// the fragment, the match line starts all-unmutated.
func NewAligned(frag []byte) Aligned {
	a := Aligned{
		Consensus: append([]byte(nil), frag...),
		Match:     make([]byte, len(frag)),
		Mutated:   append([]byte(nil), frag...),
	}
	for i := range a.Match {
		a.Match[i] = MarkKeep
	}
	return a
}

// Sequence extracts the current evolved sequence: the mutated line minus
// deletion sentinels.
func (a *Aligned) Sequence() []byte {
	out := make([]byte, 0, len(a.Mutated))
	for _, c := range a.Mutated {
		if c != Gap {
			out = append(out, c)
		}
	}
	return out
}

// columns maps each sequence position to its alignment column.
func (a *Aligned) columns() []int {
	cols := make([]int, 0, len(a.Mutated))
	for i, c := range a.Mutated {
		if c != Gap {
			cols = append(cols, i)
		}
	}
	return cols
}

// insertColumn splices one new column at col across all three lines.
func (a *Aligned) insertColumn(col int, consensus, match, mutated byte) {
	a.Consensus = insertAt(a.Consensus, col, consensus)
	a.Match = insertAt(a.Match, col, match)
	a.Mutated = insertAt(a.Mutated, col, mutated)
}

// Splice inserts another alignment before column col, lockstep on all
// three lines.
func (a *Aligned) Splice(col int, child Aligned) {
	a.Consensus = spliceAt(a.Consensus, col, child.Consensus)
	a.Match = spliceAt(a.Match, col, child.Match)
	a.Mutated = spliceAt(a.Mutated, col, child.Mutated)
}

// Tally counts annotated columns per edit kind.
func (a *Aligned) Tally() (subs, ins, dels int) {
	for _, m := range a.Match {
		switch m {
		case MarkTransition, MarkTransversion:
			subs++
		case MarkInsertion:
			ins++
		case MarkDeletion:
			dels++
		}
	}
	return subs, ins, dels
}

// Record freezes the alignment for reporting.
func (a *Aligned) Record() model.AlignmentRecord {
	return model.AlignmentRecord{
		Consensus: string(a.Consensus),
		Match:     string(a.Match),
		Mutated:   string(a.Mutated),
	}
}

func insertAt(s []byte, i int, c byte) []byte {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = c
	return s
}

func spliceAt(s []byte, i int, chunk []byte) []byte {
	out := make([]byte, 0, len(s)+len(chunk))
	out = append(out, s[:i]...)
	out = append(out, chunk...)
	out = append(out, s[i:]...)
	return out
}
