/* ============================================================= *\
   priority.go

   Priority encoding: coarse (neighbor class) in the hundreds digit,
   fine (path length) in the units.
\* ============================================================= */

package rib

// SeedPriority computes the priority for a freshly seeded hop at the
// given relationship (to the predecessor on the AS_PATH) and hop
// count from the origin (0 at the origin itself, 1 at its immediate
// neighbor, and so on)
//
//	priority = base(relationship) + (100 - hops)
//
// the origin itself always seeds at exactly PrioritySelfBase.
func SeedPriority(rel int, hops int, isOrigin bool) uint32 {
	if isOrigin {
		return PrioritySelfBase
	}
	weight := 100 - hops
	if weight < 0 {
		weight = 0
	}
	if weight > 99 {
		weight = 99
	}
	return RelationshipBase(rel) + uint32(weight)
}

// ExportPriority recomputes the priority an exporting AS assigns to
// a re-synthesized announcement for a given target relationship
// class
//
//	priority = base(target_class) + (hops - 1)
//
// where hops is extracted from the current priority's low two
// digits (0 treated as 99, i.e. the origin-seed case).
func ExportPriority(targetRel int, currentPriority uint32) uint32 {
	hops := HopsFromPriority(currentPriority)
	return RelationshipBase(targetRel) + hops
}
