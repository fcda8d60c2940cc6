package engine

import (
	"testing"

	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// Seeding AS_PATH [3, 2, 5] (origin 5) over 1 -- 2, 2--3 peer, 2 -- 5
// (5 customer of 2) should leave monitor-sticky entries at AS 2 (299),
// AS 3 (198) and AS 5 (300, the origin), and touch neither AS 1, AS 4
// nor AS 6.
func TestSeedAlongPathInstallsMonitorStickyEntriesAtEveryHop(t *testing.T) {
	g := asgraph.NewGraph()
	g.AddProviderCustomer(2, 1) // 2 customer of 1
	g.AddPeer(2, 3)
	g.AddProviderCustomer(5, 2) // 5 customer of 2
	g.AddProviderCustomer(4, 2) // 4 customer of 2, untouched by this path
	g.AddPeer(5, 6)

	p := mustParsePrefix(t, "137.99.0.0/16")
	stats := &Stats{}
	SeedAlongPath(g, []uint32{3, 2, 5}, p, 0, stats)

	want := map[uint32]uint32{2: 299, 3: 198, 5: 300}
	for asn, wantPriority := range want {
		as := g.ASes[asn]
		ann := as.LocRIB.Find(p)
		if ann == nil {
			t.Fatalf("AS %d: expected a monitor-sticky entry, found none", asn)
		}
		if !ann.FromMonitor {
			t.Fatalf("AS %d: expected FromMonitor entry", asn)
		}
		if ann.Priority != wantPriority {
			t.Fatalf("AS %d: priority = %d, want %d", asn, ann.Priority, wantPriority)
		}
	}

	for _, asn := range []uint32{1, 4, 6} {
		as := g.ASes[asn]
		if ann := as.LocRIB.Find(p); ann != nil {
			t.Fatalf("AS %d: expected no entry, found one with priority %d", asn, ann.Priority)
		}
	}
}

// A seeded origin whose ASN is in its own AttackerOrigins set is
// flagged with rib.AttackerOriginASN rather than its real ASN.
func TestSeedAlongPathFlagsAttackerOrigin(t *testing.T) {
	g := asgraph.NewGraph()
	g.AddProviderCustomer(5, 2)
	as5 := g.ASes[5]
	as5.AttackerOrigins = map[uint32]struct{}{5: {}}

	p := mustParsePrefix(t, "137.99.0.0/16")
	SeedAlongPath(g, []uint32{5}, p, 0, &Stats{})

	ann := as5.LocRIB.Find(p)
	if ann == nil || ann.ReceivedFromASN != rib.AttackerOriginASN {
		t.Fatalf("expected the origin flagged with rib.AttackerOriginASN, got %+v", ann)
	}
}

// A seeded origin outside any AttackerOrigins set is flagged with
// rib.CleanOriginASN.
func TestSeedAlongPathFlagsCleanOrigin(t *testing.T) {
	g := asgraph.NewGraph()
	g.AddProviderCustomer(5, 2)
	as5 := g.ASes[5]

	p := mustParsePrefix(t, "137.99.0.0/16")
	SeedAlongPath(g, []uint32{5}, p, 0, &Stats{})

	ann := as5.LocRIB.Find(p)
	if ann == nil || ann.ReceivedFromASN != rib.CleanOriginASN {
		t.Fatalf("expected the origin flagged with rib.CleanOriginASN, got %+v", ann)
	}
}

func mustParsePrefix(t *testing.T, s string) prefix.Prefix {
	t.Helper()
	p, err := prefix.ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q): %v", s, err)
	}
	return p
}
