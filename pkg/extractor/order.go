package extractor

import (
	"sort"

	"github.com/assetlift/assetlift/pkg/assembly"
)

// orderByReferences returns the assemblies sorted so that a dependency's
// resources are written before its dependents': if B references A and A
// does not reference B, A precedes B. The comparison only looks at direct
// references between the two assemblies at hand, not the transitive
// closure, and mutually referencing assemblies compare as a tie rather
// than failing. The sort is stable, so ties keep their input order and the
// result is deterministic for identical input.
func orderByReferences(assemblies []*assembly.Assembly) []*assembly.Assembly {
	ordered := make([]*assembly.Assembly, len(assemblies))
	copy(ordered, assemblies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return compareByReference(ordered[i], ordered[j]) < 0
	})
	return ordered
}

// compareByReference is the three-way comparator: -1 if a must precede b,
// +1 if a must follow b, 0 for unrelated or mutually referencing pairs.
func compareByReference(a, b *assembly.Assembly) int {
	aRefsB := a.ReferencesAssembly(b.Name)
	bRefsA := b.ReferencesAssembly(a.Name)
	switch {
	case aRefsB == bRefsA:
		return 0
	case bRefsA:
		return -1
	default:
		return 1
	}
}
