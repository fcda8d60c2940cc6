/* ============================================================= *\
   as.go

   Per-AS state: relationship sets, Adj-RIB-In queue, Loc-RIB,
   optional depref RIB, Tarjan bookkeeping, and policy tag.
\* ============================================================= */

package asgraph

import (
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// Relationship classes, mirrored from rib package for local clarity.
const (
	RelProvider = rib.RelProvider
	RelPeer     = rib.RelPeer
	RelCustomer = rib.RelCustomer
	RelBroken   = rib.RelBroken
)

// PolicyTag is the variant tag dispatching announcement-processing
// policy: a byte on the AS node, not a class hierarchy.
type PolicyTag byte

const (
	PolicyPlain PolicyTag = iota
	PolicyROV
	PolicyROVppV0   // no-forward-to-bad-neighbor
	PolicyROVppV01  // blackhole
	PolicyROVppV02  // blackhole with forward
	PolicyROVppV03  // preventive
	PolicyEZDirectoryOnly
	PolicyEZCommunityDetection
	PolicyEZPathEnd
	PolicyEZBGPsec
	PolicyEZTransitiveBGPsec
)

// InverseKey indexes the optional inverse-result sets by
// (prefix, origin).
type InverseKey struct {
	Prefix prefix.Prefix
	Origin uint32
}

// AS is a node in the AS graph.
type AS struct {
	ASN  uint32
	Rank int // -1 until assigned

	Providers map[uint32]struct{}
	Peers     map[uint32]struct{}
	Customers map[uint32]struct{}

	Incoming []rib.Announcement
	LocRIB   *rib.PrefixAnnouncementMap
	DeprefRIB *rib.PrefixAnnouncementMap // nil unless --store-depref

	Policy    PolicyTag
	Multihome bool // multihomed stub, propagated per --mh-propagation-mode

	MemberASes []uint32 // supernode members, nil for non-supernodes

	// Tarjan bookkeeping
	index   int
	lowlink int
	onStack bool

	// Shared with the owning Graph; nil disables inverse-result tracking.
	inverseResults map[InverseKey]map[uint32]struct{}

	// ROV/ROV++ overlay state
	AttackerOrigins  map[uint32]struct{}     // ROV attacker set assigned by loader
	BadNeighbors     map[uint32]struct{}     // v0: neighbors never re-exported to
	FailedROV        []rib.Announcement
	PassedROV        []rib.Announcement
	Blackholes       []rib.Announcement
	Preventives      []rib.Announcement // ROVpp 0.3 synthesized more-specifics

	// EZBGPsec overlay state
	Blacklist      map[uint32]struct{} // suspect-AS blacklist from community detection
	SuspectReports [][]uint32          // hyper-edges reported this round for community detection
	Adopters       map[uint32]struct{} // shared set of ASNs running a BGPsec-signing tier, assigned by loader
}

func NewAS(asn uint32, inverseResults map[InverseKey]map[uint32]struct{}) *AS {
	return &AS{
		ASN:            asn,
		Rank:           -1,
		Providers:      make(map[uint32]struct{}),
		Peers:          make(map[uint32]struct{}),
		Customers:      make(map[uint32]struct{}),
		LocRIB:         rib.NewPrefixAnnouncementMap(),
		inverseResults: inverseResults,
		index:          -1,
	}
}

// AddNeighbor adds a neighbor to the relationship set named by rel.
func (a *AS) AddNeighbor(asn uint32, rel int) {
	switch rel {
	case RelProvider:
		a.Providers[asn] = struct{}{}
	case RelPeer:
		a.Peers[asn] = struct{}{}
	case RelCustomer:
		a.Customers[asn] = struct{}{}
	}
}

// RemoveNeighbor removes a neighbor from the relationship set named
// by rel.
func (a *AS) RemoveNeighbor(asn uint32, rel int) {
	switch rel {
	case RelProvider:
		delete(a.Providers, asn)
	case RelPeer:
		delete(a.Peers, asn)
	case RelCustomer:
		delete(a.Customers, asn)
	}
}

// EnableDepref allocates the depref RIB (--store-depref).
func (a *AS) EnableDepref() {
	if a.DeprefRIB == nil {
		a.DeprefRIB = rib.NewPrefixAnnouncementMap()
	}
}

// Receive pushes propagated announcements onto the Adj-RIB-In queue.
// Not called for seeded announcements, which go through intake
// directly.
func (a *AS) Receive(anns []rib.Announcement) {
	a.Incoming = append(a.Incoming, anns...)
}

// ClearAnnouncements clears Loc-RIB, depref-RIB and the incoming
// queue, for end-of-block reset.
func (a *AS) ClearAnnouncements() {
	a.LocRIB.Clear()
	if a.DeprefRIB != nil {
		a.DeprefRIB.Clear()
	}
	a.Incoming = a.Incoming[:0]
}

func (a *AS) swapInverseResult(oldKey, newKey InverseKey) {
	if a.inverseResults == nil {
		return
	}
	if set, ok := a.inverseResults[oldKey]; ok {
		set[a.ASN] = struct{}{}
	}
	if set, ok := a.inverseResults[newKey]; ok {
		delete(set, a.ASN)
	}
}
