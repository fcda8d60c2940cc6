/* ============================================================= *\
   origin_seed.go

   Origin-only seeding mode: plant the announcement at the origin AS
   alone (priority 400, the strongest possible self-seed, stronger
   than the ordinary self base of 300-399) without walking the rest
   of the monitor-observed path. Used by origin-only runs
   (--random=false) that care only about where each prefix is truly
   originated.
\* ============================================================= */

package engine

import (
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/policy"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

const originOnlyPriority uint32 = 400

// SeedOriginOnly plants p at the origin AS of asPath only. A no-op if
// asPath is empty or the origin is absent from the graph.
func SeedOriginOnly(g *asgraph.Graph, asPath []uint32, p prefix.Prefix, timestamp int64) {
	if len(asPath) == 0 {
		return
	}
	originAsn := asPath[len(asPath)-1]

	translated := g.TranslateASN(originAsn)
	origin, ok := g.Get(translated)
	if !ok {
		return
	}

	if existing := origin.LocRIB.Find(p); existing != nil {
		if timestamp >= existing.Tstamp {
			return
		}
	}

	receivedFromASN := rib.CleanOriginASN
	if isAttackerOrigin(origin, originAsn) {
		receivedFromASN = rib.AttackerOriginASN
	}

	seeded := rib.Announcement{
		Prefix:          p,
		Origin:          originAsn,
		ReceivedFromASN: receivedFromASN,
		Priority:        originOnlyPriority,
		Tstamp:          timestamp,
		FromMonitor:     true,
		ASPath:          []uint32{translated},
		InferenceLength: 0,
	}
	if !policy.Apply(origin, seeded) {
		return
	}
	origin.ProcessAnnouncement(seeded, true)
}
