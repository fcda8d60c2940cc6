/* ============================================================= *\
   seed.go

   Plants a monitor-observed AS_PATH onto every AS along it, from
   origin outward, computing the seed priority and received-from
   relationship at each hop and detecting path breaks where
   consecutive hops are not graph neighbors.
\* ============================================================= */

package engine

import (
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/policy"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// SeedAlongPath plants p with asPath's origin at every AS in asPath
// (origin first in iteration order, i.e. asPath[len-1] is the
// origin). ASNs absent from the graph are skipped. Hops whose
// predecessor is not a provider/peer/customer of the current AS are
// counted as broken and not seeded further at that hop.
func SeedAlongPath(g *asgraph.Graph, asPath []uint32, p prefix.Prefix, timestamp int64, stats *Stats) {
	if len(asPath) == 0 {
		return
	}
	origin := asPath[len(asPath)-1]

	var curPath []uint32
	pathLen := len(asPath)

	for i := 0; i < pathLen; i++ {
		// Walk from origin outward: asPath[pathLen-1-i] is the i-th
		// hop from the origin.
		asn := asPath[pathLen-1-i]
		curPath = append([]uint32{asn}, curPath...) // origin stays last

		translated := g.TranslateASN(asn)
		as, ok := g.Get(translated)
		if !ok {
			continue
		}

		if existing := as.LocRIB.Find(p); existing != nil && existing.FromMonitor {
			switch {
			case timestamp > existing.Tstamp:
				continue // newer-but-worse observation, keep the existing seed
			case timestamp == existing.Tstamp:
				if asgraph.TieBreak(as.ASN) {
					continue
				}
				// A tie that resolves in favor of re-seeding: if this
				// is a simple prepend of the same predecessor, keep
				// the existing entry instead of reinstalling.
				if i > 0 && i < pathLen && asPath[pathLen-1-(i-1)] == as.ASN {
					continue
				}
				fixPath(g, as, curPath, p)
			default:
				fixPath(g, as, curPath, p)
			}
		}

		brokenPath := false
		receivedFrom := rib.RelBroken
		receivedFromASN := asn
		if i > 0 {
			prevAsn := asPath[pathLen-1-(i-1)]
			receivedFromASN = prevAsn
			switch {
			case hasNeighbor(as.Providers, prevAsn):
				receivedFrom = rib.RelProvider
			case hasNeighbor(as.Peers, prevAsn):
				receivedFrom = rib.RelPeer
			case hasNeighbor(as.Customers, prevAsn):
				receivedFrom = rib.RelCustomer
			default:
				brokenPath = true
			}
		} else if isAttackerOrigin(as, asn) {
			receivedFromASN = rib.AttackerOriginASN
		} else {
			receivedFromASN = rib.CleanOriginASN
		}

		if brokenPath {
			stats.BrokenPaths++
			continue
		}

		priority := rib.SeedPriority(receivedFrom, i, i == 0)
		path := make([]uint32, len(curPath))
		copy(path, curPath)

		seeded := rib.Announcement{
			Prefix:          p,
			Origin:          origin,
			ReceivedFromASN: receivedFromASN,
			Priority:        priority,
			Tstamp:          timestamp,
			FromMonitor:     true,
			ASPath:          path,
			InferenceLength: i + 1,
		}
		if !policy.Apply(as, seeded) {
			continue
		}
		as.ProcessAnnouncement(seeded, true)
	}
}

func hasNeighbor(set map[uint32]struct{}, asn uint32) bool {
	_, ok := set[asn]
	return ok
}

// isAttackerOrigin reports whether asn is a known attacker origin per
// as's own AttackerOrigins set (nil for policies that don't validate
// origins, in which case the seeded path is treated as clean).
func isAttackerOrigin(as *asgraph.AS, asn uint32) bool {
	if as.AttackerOrigins == nil {
		return false
	}
	_, bad := as.AttackerOrigins[asn]
	return bad
}

// fixPath propagates a path-prefix change to every neighbor that
// received its current best entry for p from as, rewriting the
// stored AS_PATH to match the new curPath plus the neighbor's own
// ASN. visited guards against revisiting an AS within one fix-up
// pass (the condensed graph is a DAG between supernodes, but peer
// edges are not, so a naive unbounded recursion is not safe here).
func fixPath(g *asgraph.Graph, as *asgraph.AS, curPath []uint32, p prefix.Prefix) {
	fixPathVisited(g, as, curPath, p, make(map[uint32]bool))
}

func fixPathVisited(g *asgraph.Graph, as *asgraph.AS, curPath []uint32, p prefix.Prefix, visited map[uint32]bool) {
	if visited[as.ASN] {
		return
	}
	visited[as.ASN] = true

	fixNeighborSet(g, as, as.Providers, curPath, p, visited)
	fixNeighborSet(g, as, as.Customers, curPath, p, visited)
	fixNeighborSet(g, as, as.Peers, curPath, p, visited)
}

func fixNeighborSet(g *asgraph.Graph, as *asgraph.AS, neighbors map[uint32]struct{}, curPath []uint32, p prefix.Prefix, visited map[uint32]bool) {
	for neighborAsn := range neighbors {
		neighbor, ok := g.Get(g.TranslateASN(neighborAsn))
		if !ok {
			continue
		}
		ann := neighbor.LocRIB.Find(p)
		if ann == nil || ann.ReceivedFromASN != as.ASN {
			continue
		}
		newPath := make([]uint32, len(curPath)+1)
		newPath[0] = neighbor.ASN
		copy(newPath[1:], curPath)
		updated := *ann
		updated.ASPath = newPath
		neighbor.LocRIB.Insert(updated)
		fixPathVisited(g, neighbor, newPath, p, visited)
	}
}
