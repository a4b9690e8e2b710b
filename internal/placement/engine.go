// Package placement splices evolved repeats into the background buffer
// until a target repeat fraction is reached or the retry budget runs out.
// Lowercase is the sole in-buffer marker of occupied spans; the engine
// never overwrites a lowercase base.
package placement

import (
	"math"
	"math/rand"

	"genofab/internal/background"
	"genofab/internal/dna"
	"genofab/internal/evolve"
	"genofab/internal/model"
	"genofab/internal/random"
)

const (
	// InsCyc bounds consecutive placement failures before giving up.
	InsCyc = 100
	// CleanWindow is the pre-check span at a candidate offset; cheap
	// filter before any evolution work is spent.
	CleanWindow = 100
	// MinInsertLen rejects evolved results too short to report.
	MinInsertLen = 10
)

// Target-fraction draw bounds used when the caller leaves the target unset.
const (
	RepeatTargetLo = 10.0
	RepeatTargetHi = 60.0
	SimpleTargetLo = 0.0
	SimpleTargetHi = 2.0
)

// DrawTarget sentinel: a negative target asks the engine to draw one.
const DrawTarget = -1.0

type Engine struct {
	Evolver       *evolve.Evolver
	Catalog       map[model.GCClass][]model.RepeatDescriptor
	SimpleCatalog map[model.GCClass][]model.SimpleRepeatDescriptor
	// Window is the background trace window size, for offset -> class.
	Window int
}

// Result reports what one placement pass achieved.
type Result struct {
	Records []model.InsertionRecord
	// AchievedPct counts only bases this pass inserted.
	AchievedPct float64
	TargetPct   float64
	// Exhausted is set when the consecutive-failure budget ran out
	// before the target was reached. Not an error.
	Exhausted bool
	// NextSerial continues record numbering across passes.
	NextSerial int
}

// InsertRepeats places interspersed repeats. A negative targetPct draws the
// target uniformly from [10,60].
func (e *Engine) InsertRepeats(r *rand.Rand, buf []byte, trace []model.GCClass, targetPct float64, serial int) Result {
	if targetPct < 0 {
		targetPct = random.Between(r, RepeatTargetLo, RepeatTargetHi)
	}
	return e.place(r, buf, trace, targetPct, serial, func(r *rand.Rand, class model.GCClass) (*evolve.Evolved, bool) {
		catalog := e.Catalog[class]
		if len(catalog) == 0 {
			return nil, false
		}
		desc := catalog[r.Intn(len(catalog))]
		ev, err := e.Evolver.EvolveRepeat(r, desc, class, math.MaxFloat64)
		return ev, err == nil
	})
}

// InsertSimpleRepeats places tandem low-complexity repeats. A negative
// targetPct draws the target uniformly from [0,2].
func (e *Engine) InsertSimpleRepeats(r *rand.Rand, buf []byte, trace []model.GCClass, targetPct float64, serial int) Result {
	if targetPct < 0 {
		targetPct = random.Between(r, SimpleTargetLo, SimpleTargetHi)
	}
	return e.place(r, buf, trace, targetPct, serial, func(r *rand.Rand, class model.GCClass) (*evolve.Evolved, bool) {
		catalog := e.SimpleCatalog[class]
		if len(catalog) == 0 {
			return nil, false
		}
		desc := catalog[r.Intn(len(catalog))]
		ev, err := e.Evolver.EvolveSimple(r, desc, class)
		return ev, err == nil
	})
}

func (e *Engine) place(r *rand.Rand, buf []byte, trace []model.GCClass, targetPct float64, serial int, draw func(*rand.Rand, model.GCClass) (*evolve.Evolved, bool)) Result {
	res := Result{TargetPct: targetPct, NextSerial: serial}
	if len(buf) == 0 {
		return res
	}

	inserted := 0
	failures := 0
	for res.AchievedPct < targetPct {
		failures++
		if failures >= InsCyc {
			res.Exhausted = true
			break
		}

		offset := r.Intn(len(buf))
		if dna.HasLower(buf, offset, offset+CleanWindow) {
			continue
		}
		class, ok := background.ClassAt(trace, e.Window, offset)
		if !ok {
			continue
		}
		ev, ok := draw(r, class)
		if !ok {
			continue
		}
		if len(ev.Sequence) < MinInsertLen {
			continue
		}
		// Re-validate the exact footprint; the evolved result may run
		// past the cheap pre-check window.
		if offset+len(ev.Sequence) > len(buf) {
			continue
		}
		if dna.HasLower(buf, offset, offset+len(ev.Sequence)) {
			continue
		}

		insert := append([]byte(nil), ev.Sequence...)
		dna.ToLower(insert)
		copy(buf[offset:], insert)
		failures = 0
		inserted += len(insert)
		res.NextSerial++

		subs, ins, dels := ev.Alignment.Tally()
		alnLen := len(ev.Alignment.Match)
		res.Records = append(res.Records, model.InsertionRecord{
			Serial:        res.NextSerial,
			Start:         offset,
			End:           offset + len(insert),
			Label:         ev.Label,
			Sequence:      string(insert),
			DivergencePct: pct(subs, alnLen),
			InsertionPct:  pct(ins, alnLen),
			DeletionPct:   pct(dels, alnLen),
			Alignment:     ev.Alignment.Record(),
			Fragments:     ev.Fragments,
		})
		res.AchievedPct = 100 * float64(inserted) / float64(len(buf))
	}
	return res
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
