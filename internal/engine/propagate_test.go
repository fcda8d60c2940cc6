package engine

import (
	"testing"

	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// AS 5 holds a directly-seeded monitor entry at priority 290 over
// 1 -- 2, 2--3 peer, 2 -- 5 (5 customer of 2), 5--6 peer. One up+down
// propagation pass must leave 5:290, 2:289, 6:189, 1:288, 3:188, all
// derived from the Gao-Rexford export-priority rule.
func TestPropagateUpDownComputesGaoRexfordPriorities(t *testing.T) {
	g := asgraph.NewGraph()
	g.AddProviderCustomer(2, 1) // 2 customer of 1
	g.AddPeer(2, 3)
	g.AddProviderCustomer(5, 2) // 5 customer of 2
	g.AddPeer(5, 6)
	g.Process()

	p := mustParsePrefix(t, "137.99.0.0/16")
	as5 := g.ASes[g.TranslateASN(5)]
	as5.LocRIB.Insert(rib.Announcement{
		Prefix:      p,
		Origin:      13796,
		Priority:    290,
		Tstamp:      0,
		FromMonitor: true,
		ASPath:      []uint32{5},
	})

	PropagateUp(g)
	PropagateDown(g)

	want := map[uint32]uint32{5: 290, 2: 289, 6: 189, 1: 288, 3: 188}
	for asn, wantPriority := range want {
		as := g.ASes[g.TranslateASN(asn)]
		ann := as.LocRIB.Find(p)
		if ann == nil {
			t.Fatalf("AS %d: expected an entry, found none", asn)
		}
		if ann.Priority != wantPriority {
			t.Fatalf("AS %d: priority = %d, want %d", asn, ann.Priority, wantPriority)
		}
	}
}

// A peer/provider-learned route (priority below the customer-learned
// floor of 200) must never be forwarded to a provider or a peer.
func TestExportFiltersBelowCustomerFloor(t *testing.T) {
	g := asgraph.NewGraph()
	g.AddProviderCustomer(2, 1) // 2 customer of 1
	g.AddPeer(2, 3)
	g.Process()

	p := mustParsePrefix(t, "198.51.100.0/24")
	as2 := g.ASes[g.TranslateASN(2)]
	// A provider-learned route: priority below 200.
	as2.LocRIB.Insert(rib.Announcement{
		Prefix:   p,
		Origin:   64500,
		Priority: 88,
		ASPath:   []uint32{2},
	})

	PropagateUp(g)

	as1 := g.ASes[g.TranslateASN(1)]
	as3 := g.ASes[g.TranslateASN(3)]
	if ann := as1.LocRIB.Find(p); ann != nil {
		t.Fatalf("provider must not receive a sub-200 route, got priority %d", ann.Priority)
	}
	if ann := as3.LocRIB.Find(p); ann != nil {
		t.Fatalf("peer must not receive a sub-200 route, got priority %d", ann.Priority)
	}
}

// ROVpp 0.1's blackhole stays inside the installing AS's customer
// cone; ROVpp 0.2's is re-exported to its provider like any other
// customer-class route.
func TestROVppBlackholeForwardingBreadthByVariant(t *testing.T) {
	for _, tc := range []struct {
		name           string
		policy         asgraph.PolicyTag
		wantAtProvider bool
	}{
		{"v0.1 stays in the customer cone", asgraph.PolicyROVppV01, false},
		{"v0.2 reaches the provider", asgraph.PolicyROVppV02, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := asgraph.NewGraph()
			g.AddProviderCustomer(2, 1) // 2 customer of 1
			g.AddPeer(2, 3)
			g.Process()

			as2 := g.ASes[g.TranslateASN(2)]
			as2.Policy = tc.policy
			as2.AttackerOrigins = map[uint32]struct{}{666666: {}}

			p := mustParsePrefix(t, "203.0.113.0/24")
			as2.Incoming = append(as2.Incoming, rib.Announcement{
				Prefix: p, Origin: 666666, ReceivedFromASN: 9, Priority: 188, ASPath: []uint32{9, 666666},
			})

			PropagateUp(g)

			as1 := g.ASes[g.TranslateASN(1)]
			gotAtProvider := as1.LocRIB.Find(p) != nil
			if gotAtProvider != tc.wantAtProvider {
				t.Fatalf("%s: provider has the blackhole = %v, want %v", tc.name, gotAtProvider, tc.wantAtProvider)
			}
		})
	}
}

// A monitor-sticky (FromMonitor) entry is never displaced by a
// propagated announcement, even one of higher priority.
func TestMonitorEntryIsSticky(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	p := mustParsePrefix(t, "203.0.113.0/24")
	as.LocRIB.Insert(rib.Announcement{
		Prefix:      p,
		Origin:      64500,
		Priority:    299,
		Tstamp:      10,
		FromMonitor: true,
		ASPath:      []uint32{2},
	})

	as.ProcessAnnouncement(rib.Announcement{
		Prefix:   p,
		Origin:   64501,
		Priority: 400,
		Tstamp:   10,
		ASPath:   []uint32{9, 2},
	}, false)

	got := as.LocRIB.Find(p)
	if got == nil || got.Origin != 64500 || got.Priority != 299 {
		t.Fatalf("monitor-sticky entry was displaced: %+v", got)
	}
}
