/* ============================================================= *\
   intake.go

   Per-announcement processing rule and batch drain.
\* ============================================================= */

package asgraph

import "github.com/anaximander-labs/bgpextrap/internal/rib"

// ProcessAnnouncement applies the per-announcement processing rule
// to ann. fromSeeding indicates the caller is seeding
// (AS_PATH planting) rather than ordinary propagation intake; when
// false, an existing from_monitor entry is sticky and the
// incoming announcement is skipped outright.
func (a *AS) ProcessAnnouncement(ann rib.Announcement, fromSeeding bool) {
	cur := a.LocRIB.Find(ann.Prefix)

	if cur == nil {
		a.LocRIB.Insert(ann)
		if a.inverseResults != nil {
			key := InverseKey{Prefix: ann.Prefix, Origin: ann.Origin}
			if set, ok := a.inverseResults[key]; ok {
				delete(set, a.ASN)
			}
		}
		return
	}

	if cur.FromMonitor && !fromSeeding {
		return // monitor-sticky entries absorb no propagation writes
	}

	switch {
	case ann.Priority > cur.Priority:
		a.demoteAndInstall(*cur, ann)
	case ann.Priority == cur.Priority:
		if tie_break_bool(a.ASN) {
			a.demoteAndInstall(*cur, ann)
		} else {
			a.considerDepref(ann)
		}
	default:
		a.considerDepref(ann)
	}
}

// demoteAndInstall moves old into the depref-RIB (replacing any
// existing depref entry for the same prefix) and installs ann as
// the new Loc-RIB best.
func (a *AS) demoteAndInstall(old, ann rib.Announcement) {
	a.swapInverseResult(
		InverseKey{Prefix: old.Prefix, Origin: old.Origin},
		InverseKey{Prefix: ann.Prefix, Origin: ann.Origin},
	)
	if a.DeprefRIB != nil {
		a.DeprefRIB.Insert(old)
	}
	a.LocRIB.Insert(ann)
}

// considerDepref installs ann into the depref-RIB only if it beats
// the current depref entry for the same prefix (or there is none).
func (a *AS) considerDepref(ann rib.Announcement) {
	if a.DeprefRIB == nil {
		return
	}
	curDepref := a.DeprefRIB.Find(ann.Prefix)
	if curDepref == nil || ann.Priority > curDepref.Priority {
		a.DeprefRIB.Insert(ann)
	}
}

// ProcessAnnouncements drains the Adj-RIB-In into the processing
// rule above, in insertion order, and clears the queue.
func (a *AS) ProcessAnnouncements() {
	for _, ann := range a.Incoming {
		a.ProcessAnnouncement(ann, false)
	}
	a.Incoming = a.Incoming[:0]
}
