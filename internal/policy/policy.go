/* ============================================================= *\
   policy.go

   Overlay dispatch on asgraph.AS.Policy: Plain BGP, ROV, the four
   ROV++ variants, and the five EZBGPsec tiers. A tagged-variant byte
   on the AS node drives a switch here rather than a polymorphic AS
   class hierarchy.
\* ============================================================= */

package policy

import (
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// BlackholeCommunity marks a synthesized null-route announcement (in
// its Community field) for downstream dataplane-simulation consumers, distinct from
// the blackhole origin ASN sentinel (rib.BlackholeASN).
const BlackholeCommunity uint32 = 666

// Apply runs the intake-time policy check for as.Policy against ann,
// before the announcement reaches the ordinary best-path selection
// rule. It reports whether ann should proceed to ProcessAnnouncement.
func Apply(as *asgraph.AS, ann rib.Announcement) bool {
	switch as.Policy {
	case asgraph.PolicyPlain:
		return true

	case asgraph.PolicyROV:
		return applyROV(as, ann)

	case asgraph.PolicyROVppV0:
		if !applyROV(as, ann) {
			markBadNeighbor(as, ann)
			return false
		}
		return true

	case asgraph.PolicyROVppV01, asgraph.PolicyROVppV02, asgraph.PolicyROVppV03:
		if applyROV(as, ann) {
			return true
		}
		markBadNeighbor(as, ann)
		installBlackhole(as, ann)
		return false

	case asgraph.PolicyEZDirectoryOnly, asgraph.PolicyEZCommunityDetection,
		asgraph.PolicyEZPathEnd, asgraph.PolicyEZBGPsec, asgraph.PolicyEZTransitiveBGPsec:
		return applyEZBGPsec(as, ann)

	default:
		return true
	}
}

func isAttacker(as *asgraph.AS, origin uint32) bool {
	if as.AttackerOrigins == nil {
		return false
	}
	_, bad := as.AttackerOrigins[origin]
	return bad
}

func applyROV(as *asgraph.AS, ann rib.Announcement) bool {
	if !isAttacker(as, ann.Origin) {
		as.PassedROV = append(as.PassedROV, ann)
		return true
	}
	as.FailedROV = append(as.FailedROV, ann)
	return false
}

func markBadNeighbor(as *asgraph.AS, ann rib.Announcement) {
	if as.BadNeighbors == nil {
		as.BadNeighbors = make(map[uint32]struct{})
	}
	as.BadNeighbors[ann.ReceivedFromASN] = struct{}{}
}

// installBlackhole synthesizes a null-route announcement for ann's
// prefix if no safe (non-attacker) route already covers it, tagging
// it with BlackholeCommunity for downstream dataplane consumers and
// rib.AttackerSeenASN as a path annotation marking that an attacker
// announcement was rejected one hop upstream of the blackhole's own
// origin. ROVpp 0.3 additionally synthesizes a preventive
// announcement of the attacker's prefix split into two more specific
// halves (installPreventive).
func installBlackhole(as *asgraph.AS, ann rib.Announcement) {
	if existing := as.LocRIB.Find(ann.Prefix); existing != nil && !isAttacker(as, existing.Origin) {
		return
	}
	blackhole := rib.Announcement{
		Prefix:          ann.Prefix,
		Origin:          rib.BlackholeASN,
		ReceivedFromASN: as.ASN,
		Priority:        rib.PrioritySelfBase,
		Tstamp:          ann.Tstamp,
		FromMonitor:     true,
		ASPath:          []uint32{as.ASN, rib.AttackerSeenASN, rib.BlackholeASN},
		Community:       BlackholeCommunity,
	}
	as.Blackholes = append(as.Blackholes, blackhole)
	as.ProcessAnnouncement(blackhole, true)

	if as.Policy == asgraph.PolicyROVppV03 {
		installPreventive(as, ann)
	}
}

// installPreventive synthesizes two clean announcements, one per half
// of ann's prefix split one bit narrower, so that a longest-prefix
// match prefers them over the attacker's covering announcement. Each
// half is tagged with one of rib.PreventiveASN1/PreventiveASN2 as its
// origin. A /32 (no narrower split exists) installs nothing.
func installPreventive(as *asgraph.AS, ann rib.Announcement) {
	if ann.Prefix.MaskLen() >= 32 {
		return
	}
	halves := ann.Prefix.Subnets(ann.Prefix.MaskLen() + 1)
	origins := [2]uint32{rib.PreventiveASN1, rib.PreventiveASN2}
	for i, half := range halves {
		if i >= len(origins) {
			break
		}
		preventive := rib.Announcement{
			Prefix:          half,
			Origin:          origins[i],
			ReceivedFromASN: as.ASN,
			Priority:        rib.PrioritySelfBase,
			Tstamp:          ann.Tstamp,
			FromMonitor:     true,
			ASPath:          []uint32{as.ASN, origins[i]},
		}
		as.Preventives = append(as.Preventives, preventive)
		as.ProcessAnnouncement(preventive, true)
	}
}

// ShouldExportTo reports whether as may export to neighborAsn under
// its policy: ROV++ v0 (and the blackhole variants, which inherit the
// same bad-neighbor memory) never re-export to a neighbor that has
// once sent an attacker announcement. This gates re-export of as's
// whole Loc-RIB; the narrower question of which direction a
// synthesized blackhole itself is allowed to travel (0.1: customers
// only, 0.2/0.3: every neighbor) is decided per-announcement in
// engine.exportTo via BlackholeExportsUpstream.
func ShouldExportTo(as *asgraph.AS, neighborAsn uint32) bool {
	switch as.Policy {
	case asgraph.PolicyROVppV0, asgraph.PolicyROVppV01, asgraph.PolicyROVppV02, asgraph.PolicyROVppV03:
		if as.BadNeighbors == nil {
			return true
		}
		_, bad := as.BadNeighbors[neighborAsn]
		return !bad
	default:
		return true
	}
}

// BlackholeExportsUpstream reports whether a synthesized blackhole
// announcement (Origin == rib.BlackholeASN) originated under as's
// policy may be re-exported toward providers/peers. ROVpp 0.1 keeps
// the blackhole local to its customer cone; 0.2 and 0.3 forward it
// everywhere, same as an ordinary route.
func BlackholeExportsUpstream(policy asgraph.PolicyTag) bool {
	return policy != asgraph.PolicyROVppV01
}

// IsEZBGPsec reports whether tag is one of the five EZBGPsec tiers.
func IsEZBGPsec(tag asgraph.PolicyTag) bool {
	switch tag {
	case asgraph.PolicyEZDirectoryOnly, asgraph.PolicyEZCommunityDetection,
		asgraph.PolicyEZPathEnd, asgraph.PolicyEZBGPsec, asgraph.PolicyEZTransitiveBGPsec:
		return true
	default:
		return false
	}
}

// applyEZBGPsec rejects a path in which this AS already appears
// (loop prevention at intake), one whose origin is already
// blacklisted by a prior community-detection pass, or one whose
// signature an adopting AS cannot verify (stood in here by the same
// simulated attacker-origin set ROV uses, in place of an actual MAC
// check). Either rejection files a suspect report naming the
// receiving AS and the origin, for the next community-detection pass
// to fold into its hypergraph. This baseline is shared by all five
// tiers; RankEZBGPsec layers the BGPsec/transitive-BGPsec security
// ranking on top for candidates that survive it.
func applyEZBGPsec(as *asgraph.AS, ann rib.Announcement) bool {
	for _, hop := range ann.ASPath {
		if hop == as.ASN {
			return false
		}
	}
	suspect := isAttacker(as, ann.Origin)
	if !suspect && as.Blacklist != nil {
		_, suspect = as.Blacklist[ann.Origin]
	}
	if suspect {
		as.SuspectReports = append(as.SuspectReports, []uint32{ann.ReceivedFromASN, ann.Origin})
		return false
	}
	return true
}

// RankEZBGPsec picks the best of a group of same-prefix candidate
// announcements that all survived applyEZBGPsec this round at as.
// The relationship/hop priority each candidate already carries
// (ann.Priority) stays the dominant term; ties are broken first by
// whether the candidate's path, with as prepended, carries the
// security evidence as's tier requires (strict BGPsec: every hop is
// an adopter; transitive BGPsec: any hop is), then by whether the
// path is shorter than the entry currently installed for the prefix.
// Tiers other than BGPsec/transitive-BGPsec never see the security
// bit set, so they reduce to plain relationship/hop ranking.
func RankEZBGPsec(as *asgraph.AS, group []rib.Announcement) rib.Announcement {
	prevLen := -1
	if existing := as.LocRIB.Find(group[0].Prefix); existing != nil {
		prevLen = len(existing.ASPath)
	}

	best := group[0]
	bestKey := ezbgpsecRankKey(as, best, prevLen)
	for _, cand := range group[1:] {
		key := ezbgpsecRankKey(as, cand, prevLen)
		if key > bestKey {
			best, bestKey = cand, key
		}
	}
	return best
}

func ezbgpsecRankKey(as *asgraph.AS, ann rib.Announcement, prevPathLen int) uint32 {
	pathWithSelf := make([]uint32, len(ann.ASPath)+1)
	pathWithSelf[0] = as.ASN
	copy(pathWithSelf[1:], ann.ASPath)

	adopts := func(asn uint32) bool {
		if as.Adopters == nil {
			return false
		}
		_, ok := as.Adopters[asn]
		return ok
	}

	var secure bool
	switch as.Policy {
	case asgraph.PolicyEZBGPsec:
		secure = HasContiguousAdopterChain(pathWithSelf, adopts)
	case asgraph.PolicyEZTransitiveBGPsec:
		secure = HasAnySignedHop(pathWithSelf, adopts)
	}

	short := prevPathLen >= 0 && len(pathWithSelf) < prevPathLen
	return SecurityPriority(ann.Priority, secure, short)
}

// SecurityPriority composes the three-level EZBGPsec ranking key used
// by RankEZBGPsec: base (the ordinary Gao-Rexford relationship/hop
// priority) is shifted up so it always dominates; securityPresent and
// shortPath only break ties between candidates that share the same
// base, never crossing a relationship-class boundary.
func SecurityPriority(base uint32, securityPresent, shortPath bool) uint32 {
	key := base << 2
	if securityPresent {
		key |= 1 << 1
	}
	if shortPath {
		key |= 1
	}
	return key
}

// HasContiguousAdopterChain reports whether every hop in path (as
// seen from the path's tail toward the head) belongs to adopters,
// the strict-BGPsec requirement. adopts should report whether an
// ASN runs BGPsec.
func HasContiguousAdopterChain(path []uint32, adopts func(uint32) bool) bool {
	for _, asn := range path {
		if !adopts(asn) {
			return false
		}
	}
	return true
}

// HasAnySignedHop reports whether any hop in path is a BGPsec
// adopter, the relaxed transitive-BGPsec requirement.
func HasAnySignedHop(path []uint32, adopts func(uint32) bool) bool {
	for _, asn := range path {
		if adopts(asn) {
			return true
		}
	}
	return false
}
