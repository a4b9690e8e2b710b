package evolve

import (
	"math/rand"
	"sort"

	"genofab/internal/model"
)

// ageEntry pairs a catalog descriptor with its index age (the descriptor's
// age with ranged fields at their upper bounds, so a threshold can never be
// beaten by a draw-time resolution).
type ageEntry struct {
	Age  float64
	Desc model.RepeatDescriptor
}

// AgeIndex answers "pick an insert younger than X" per GC class and family.
// Built once from the repeat catalog, read-only afterwards.
type AgeIndex struct {
	families map[model.GCClass]map[string][]ageEntry
}

func BuildAgeIndex(catalog map[model.GCClass][]model.RepeatDescriptor) *AgeIndex {
	ix := &AgeIndex{families: make(map[model.GCClass]map[string][]ageEntry)}
	for class, descs := range catalog {
		byFamily := make(map[string][]ageEntry)
		for _, d := range descs {
			byFamily[d.Family] = append(byFamily[d.Family], ageEntry{Age: d.MaxAge(), Desc: d})
		}
		for family := range byFamily {
			entries := byFamily[family]
			sort.Slice(entries, func(i, j int) bool { return entries[i].Age < entries[j].Age })
			byFamily[family] = entries
		}
		ix.families[class] = byFamily
	}
	return ix
}

// Families lists the family names indexed for a class.
func (ix *AgeIndex) Families(class model.GCClass) []string {
	names := make([]string, 0, len(ix.families[class]))
	for f := range ix.families[class] {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// YoungestEligible binary-searches the ascending age array for the largest
// index whose age stays at or under the threshold. An answer of index 0
// means the family has no young-enough population to draw from and the
// family is rejected; otherwise a uniform pick over the eligible prefix is
// returned.
func (ix *AgeIndex) YoungestEligible(r *rand.Rand, class model.GCClass, family string, ageThreshold float64) (model.RepeatDescriptor, bool) {
	entries := ix.families[class][family]
	if len(entries) == 0 {
		return model.RepeatDescriptor{}, false
	}
	i := sort.Search(len(entries), func(j int) bool { return entries[j].Age > ageThreshold }) - 1
	if i <= 0 {
		return model.RepeatDescriptor{}, false
	}
	return entries[r.Intn(i)].Desc, true
}
