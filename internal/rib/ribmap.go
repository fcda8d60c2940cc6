/* ============================================================= *\
   ribmap.go

   PrefixAnnouncementMap: the bounded per-AS store, at-most-one best
   announcement per prefix. A thin wrapper over a map, matching the
   semantics (not the vector-of-slots layout) of a tstamp-indexed
   announcement table: an absent or "tstamp=-1" entry is the empty
   state.
\* ============================================================= */

package rib

import "github.com/anaximander-labs/bgpextrap/internal/prefix"

// PrefixAnnouncementMap maps a prefix to at most one Announcement.
type PrefixAnnouncementMap struct {
	entries map[prefix.Prefix]*Announcement
}

func NewPrefixAnnouncementMap() *PrefixAnnouncementMap {
	return &PrefixAnnouncementMap{entries: make(map[prefix.Prefix]*Announcement)}
}

// Find returns the current entry for p, or nil if empty (tstamp=-1
// equivalent).
func (m *PrefixAnnouncementMap) Find(p prefix.Prefix) *Announcement {
	a, ok := m.entries[p]
	if !ok || a.Tstamp == EmptyTstamp {
		return nil
	}
	return a
}

// Insert installs ann at its prefix, replacing any existing entry.
func (m *PrefixAnnouncementMap) Insert(ann Announcement) {
	a := ann
	m.entries[ann.Prefix] = &a
}

// Erase resets the entry at p to the empty state.
func (m *PrefixAnnouncementMap) Erase(p prefix.Prefix) {
	delete(m.entries, p)
}

// Filled reports whether p currently holds a real announcement.
func (m *PrefixAnnouncementMap) Filled(p prefix.Prefix) bool {
	return m.Find(p) != nil
}

// Size returns the number of populated entries.
func (m *PrefixAnnouncementMap) Size() int {
	return len(m.entries)
}

// Empty reports whether there are no populated entries.
func (m *PrefixAnnouncementMap) Empty() bool {
	return len(m.entries) == 0
}

// Clear resets the map to empty, discarding every entry.
func (m *PrefixAnnouncementMap) Clear() {
	m.entries = make(map[prefix.Prefix]*Announcement)
}

// Range calls f for every populated entry. Iteration order is
// unspecified.
func (m *PrefixAnnouncementMap) Range(f func(p prefix.Prefix, ann *Announcement)) {
	for p, a := range m.entries {
		f(p, a)
	}
}
