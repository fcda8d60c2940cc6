/* ============================================================= *\
   propagate.go

   The phase loop over ases_by_rank: customers drain and export
   upward to providers, then to peers, then the reverse pass exports
   downward to customers. Gao-Rexford is enforced at export time by
   the priority-class filter (customer-learned routes only flow
   up/sideways; everything flows down).
\* ============================================================= */

package engine

import (
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/policy"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// processIncoming drains an AS's Adj-RIB-In through the policy check
// for its overlay (ROV/ROV++/EZBGPsec reject attacker or blacklisted
// routes before they reach the ordinary best-path rule) before the
// plain processing rule runs. EZBGPsec-tier ASes additionally rank
// same-prefix survivors by security evidence before the best-path
// rule ever sees more than one candidate per prefix.
func processIncoming(as *asgraph.AS) {
	if policy.IsEZBGPsec(as.Policy) {
		processIncomingEZBGPsec(as)
		return
	}
	for _, ann := range as.Incoming {
		if !policy.Apply(as, ann) {
			continue
		}
		as.ProcessAnnouncement(ann, false)
	}
	as.Incoming = as.Incoming[:0]
}

func processIncomingEZBGPsec(as *asgraph.AS) {
	survivors := make(map[prefix.Prefix][]rib.Announcement)
	for _, ann := range as.Incoming {
		if !policy.Apply(as, ann) {
			continue
		}
		survivors[ann.Prefix] = append(survivors[ann.Prefix], ann)
	}
	as.Incoming = as.Incoming[:0]

	for _, group := range survivors {
		as.ProcessAnnouncement(policy.RankEZBGPsec(as, group), false)
	}
}

// PropagateUp drains every AS's Adj-RIB-In and exports customer
// routes to providers, then (a second full rank sweep) to peers.
// Multihomed and empty ASes are skipped for export, matching the
// original's !is_mh && !is_empty guard.
func PropagateUp(g *asgraph.Graph) {
	for level := 0; level < len(g.ASesByRank); level++ {
		for _, asn := range g.ASesByRank[level] {
			as, ok := g.Get(asn)
			if !ok {
				continue
			}
			processIncoming(as)
			if !as.Multihome && !as.LocRIB.Empty() {
				sendAllAnnouncements(g, as, true, false, false)
			}
		}
	}
	for level := 0; level < len(g.ASesByRank); level++ {
		for _, asn := range g.ASesByRank[level] {
			as, ok := g.Get(asn)
			if !ok {
				continue
			}
			processIncoming(as)
			if !as.Multihome && !as.LocRIB.Empty() {
				sendAllAnnouncements(g, as, false, true, false)
			}
		}
	}
}

// PropagateDown drains every AS's Adj-RIB-In, top rank down to
// bottom, and exports to customers.
func PropagateDown(g *asgraph.Graph) {
	for level := len(g.ASesByRank) - 1; level >= 0; level-- {
		for _, asn := range g.ASesByRank[level] {
			as, ok := g.Get(asn)
			if !ok {
				continue
			}
			processIncoming(as)
			if !as.Multihome && !as.LocRIB.Empty() {
				sendAllAnnouncements(g, as, false, false, true)
			}
		}
	}
}

// sendAllAnnouncements assembles and pushes source's Loc-RIB onto the
// selected neighbor sets, recomputing priority for the target
// relationship class at each hop.
func sendAllAnnouncements(g *asgraph.Graph, source *asgraph.AS, toProviders, toPeers, toCustomers bool) {
	// targetRel names the relationship the RECEIVING end will record
	// this route under: a provider receiving from source records it
	// as customer-learned (base 200); a customer receiving from
	// source records it as provider-learned (base 0).
	if toProviders {
		exportTo(g, source, source.Providers, rib.RelCustomer, true)
	}
	if toPeers {
		exportTo(g, source, source.Peers, rib.RelPeer, true)
	}
	if toCustomers {
		exportTo(g, source, source.Customers, rib.RelProvider, false)
	}
}

// exportTo builds the export batch for one relationship class and
// pushes it to every neighbor in neighbors. customerOnly restricts
// the batch to routes originally learned from a customer (Gao-Rexford
// valley-free export); the downward (to-customer) pass carries
// everything. A ROVpp 0.1 blackhole is additionally held back from
// every upward (customerOnly) pass regardless of its priority class,
// per policy.BlackholeExportsUpstream.
func exportTo(g *asgraph.Graph, source *asgraph.AS, neighbors map[uint32]struct{}, targetRel int, customerOnly bool) {
	if len(neighbors) == 0 {
		return
	}

	var batch []rib.Announcement
	source.LocRIB.Range(func(_ prefix.Prefix, ann *rib.Announcement) {
		if customerOnly && ann.Priority < 200 {
			return
		}
		if customerOnly && ann.Origin == rib.BlackholeASN && !policy.BlackholeExportsUpstream(source.Policy) {
			return
		}
		path := make([]uint32, len(ann.ASPath))
		copy(path, ann.ASPath)
		batch = append(batch, rib.Announcement{
			Prefix:          ann.Prefix,
			Origin:          ann.Origin,
			ReceivedFromASN: source.ASN,
			Priority:        rib.ExportPriority(targetRel, ann.Priority),
			Tstamp:          ann.Tstamp,
			ASPath:          path,
			InferenceLength: ann.InferenceLength + 1,
			Community:       ann.Community,
		})
	})
	if len(batch) == 0 {
		return
	}

	for neighborAsn := range neighbors {
		if !policy.ShouldExportTo(source, neighborAsn) {
			continue
		}
		neighbor, ok := g.Get(g.TranslateASN(neighborAsn))
		if !ok {
			continue
		}
		neighbor.Receive(batch)
	}
}
