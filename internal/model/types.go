package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GCClass labels a GC-content bucket by the bucket's upper bound percentage.
// Every probability table in the run is keyed by it.
type GCClass int

// Direction controls strand orientation of an evolved fragment.
type Direction int

const (
	Forward Direction = iota
	Reverse
	RandomStrand
)

// RepeatDescriptor describes one interspersed-repeat instance in a catalog.
// Numeric fields may carry a min-max range resolved at draw time.
type RepeatDescriptor struct {
	Family         string     `json:"family"`
	Subfamily      string     `json:"subfamily"`
	Direction      Direction  `json:"direction"`
	Divergence     NumOrRange `json:"divergence"`
	Insertion      NumOrRange `json:"insertion"`
	Deletion       NumOrRange `json:"deletion"`
	FragmentLength NumOrRange `json:"fragment_length"`
	Breaks         NumOrRange `json:"breaks"`
}

// MaxAge is the descriptor age with every ranged field at its upper bound.
// The age index sorts on it so that an eligibility ceiling can never be
// exceeded by a draw-time resolution.
func (d RepeatDescriptor) MaxAge() float64 {
	return d.Divergence.Max + d.Insertion.Max + d.Deletion.Max + 10*d.Breaks.Max
}

// Label is the composite family/subfamily identifier used in reports.
func (d RepeatDescriptor) Label() string {
	if d.Subfamily == "" {
		return d.Family
	}
	return d.Family + "/" + d.Subfamily
}

// SimpleRepeatDescriptor describes a tandem low-complexity motif.
type SimpleRepeatDescriptor struct {
	Label      string     `json:"label"`
	Motif      string     `json:"motif"`
	Direction  Direction  `json:"direction"`
	Expansion  NumOrRange `json:"expansion"`
	Divergence NumOrRange `json:"divergence"`
	Indel      NumOrRange `json:"indel"`
}

// Age combines mutation rates and fragmentation into a single evolved-ness
// scalar: divergence% + insertion% + deletion% + 10 per break.
func Age(divergence, insertion, deletion float64, breaks int) float64 {
	return divergence + insertion + deletion + 10*float64(breaks)
}

// Fragment attributes one span of an evolved sequence to its source.
type Fragment struct {
	Length int    `json:"length"`
	Label  string `json:"label"`
}

// AlignmentRecord holds the three parallel lines describing one evolved
// fragment. Match annotation alphabet: '|' unmutated, 'i' transition,
// 'v' transversion, 'n' insertion, 'd' deletion.
type AlignmentRecord struct {
	Consensus string `json:"consensus"`
	Match     string `json:"match"`
	Mutated   string `json:"mutated"`
}

// InsertionRecord reports one placed repeat; consumed by the output layer.
type InsertionRecord struct {
	Serial        int             `json:"serial"`
	Start         int             `json:"start"`
	End           int             `json:"end"`
	Label         string          `json:"label"`
	Sequence      string          `json:"sequence"`
	DivergencePct float64         `json:"divergence_pct"`
	InsertionPct  float64         `json:"insertion_pct"`
	DeletionPct   float64         `json:"deletion_pct"`
	Alignment     AlignmentRecord `json:"alignment"`
	Fragments     []Fragment      `json:"fragments"`
}

// RunArtifact is one generated sequence plus everything placed into it.
type RunArtifact struct {
	VersionedRecord
	ID             string            `json:"id"`
	Seed           int64             `json:"seed"`
	Length         int               `json:"length"`
	Sequence       string            `json:"sequence"`
	Records        []InsertionRecord `json:"records"`
	RepeatPct      float64           `json:"repeat_pct"`
	SimplePct      float64           `json:"simple_pct"`
	CreatedAtUnix  int64             `json:"created_at_unix"`
	SequenceSerial int               `json:"sequence_serial"`
}
