package policy

import (
	"testing"

	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

func mustParsePrefix(t *testing.T, s string) prefix.Prefix {
	t.Helper()
	p, err := prefix.ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q): %v", s, err)
	}
	return p
}

// An ROV-enabled AS drops an announcement whose origin is a known
// attacker, and the rejected path never reaches Loc-RIB.
func TestROVDropsAttackerOrigin(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROV
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	ann := rib.Announcement{Prefix: p, Origin: 666666, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 666666}}

	if Apply(as, ann) {
		t.Fatal("expected ROV to reject an attacker-origin announcement")
	}
	if as.LocRIB.Find(p) != nil {
		t.Fatal("rejected announcement must not reach Loc-RIB")
	}
	if len(as.FailedROV) != 1 {
		t.Fatalf("expected one FailedROV record, got %d", len(as.FailedROV))
	}
}

func TestROVAcceptsCleanOrigin(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROV
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	ann := rib.Announcement{Origin: 64500, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 64500}}
	if !Apply(as, ann) {
		t.Fatal("expected ROV to accept a clean-origin announcement")
	}
	if len(as.PassedROV) != 1 {
		t.Fatalf("expected one PassedROV record, got %d", len(as.PassedROV))
	}
}

// ROV++ v0.1 synthesizes a blackhole on an attacker rejection, marks
// the sending neighbor bad, and the blackhole itself is only ever
// exported toward customers (ShouldExportTo does not gate it; the
// propagation layer's upward export filter does, through
// BlackholeExportsUpstream, since the blackhole's priority alone would
// pass the customer-class check).
func TestROVppV01InstallsBlackholeAndMarksBadNeighbor(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROVppV01
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	ann := rib.Announcement{Prefix: p, Origin: 666666, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 666666}}

	if Apply(as, ann) {
		t.Fatal("expected ROV++ v0.1 to reject an attacker-origin announcement")
	}

	if _, bad := as.BadNeighbors[3]; !bad {
		t.Fatal("expected AS 3 to be marked a bad neighbor")
	}

	if len(as.Blackholes) != 1 {
		t.Fatalf("expected one synthesized blackhole, got %d", len(as.Blackholes))
	}
	bh := as.LocRIB.Find(p)
	if bh == nil || bh.Origin != rib.BlackholeASN {
		t.Fatalf("expected a blackhole entry in Loc-RIB, got %+v", bh)
	}

	if ShouldExportTo(as, 3) {
		t.Fatal("ROV++ v0-family must never re-export to a marked bad neighbor")
	}
	if !ShouldExportTo(as, 9) {
		t.Fatal("an unmarked neighbor must still be eligible for export")
	}
}

// A safe route already covering the prefix suppresses blackhole
// installation.
func TestROVppV01SkipsBlackholeWhenSafeRouteExists(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROVppV01
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	as.LocRIB.Insert(rib.Announcement{Prefix: p, Origin: 64500, Priority: 299, ASPath: []uint32{2, 64500}})

	ann := rib.Announcement{Prefix: p, Origin: 666666, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 666666}}
	if Apply(as, ann) {
		t.Fatal("expected rejection regardless of blackhole installation")
	}
	if len(as.Blackholes) != 0 {
		t.Fatalf("expected no blackhole when a safe route already covers the prefix, got %d", len(as.Blackholes))
	}
	if got := as.LocRIB.Find(p); got == nil || got.Origin != 64500 {
		t.Fatalf("existing safe route must survive untouched, got %+v", got)
	}
}

// EZBGPsec loop prevention: a path that already contains this AS is
// rejected outright, independent of attacker/blacklist state.
func TestEZBGPsecRejectsLoop(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyEZDirectoryOnly

	ann := rib.Announcement{Origin: 64500, ReceivedFromASN: 3, ASPath: []uint32{3, 2, 5, 64500}}
	if Apply(as, ann) {
		t.Fatal("expected EZBGPsec to reject a path already containing this AS")
	}
}

// ROVpp 0.1's blackhole never travels upstream; 0.2 and 0.3's do.
func TestBlackholeExportsUpstreamDiffersByVariant(t *testing.T) {
	if BlackholeExportsUpstream(asgraph.PolicyROVppV01) {
		t.Fatal("ROVpp 0.1 must keep its blackhole out of the upward export batch")
	}
	if !BlackholeExportsUpstream(asgraph.PolicyROVppV02) {
		t.Fatal("ROVpp 0.2 must forward its blackhole upstream too")
	}
	if !BlackholeExportsUpstream(asgraph.PolicyROVppV03) {
		t.Fatal("ROVpp 0.3 must forward its blackhole upstream too")
	}
}

// installBlackhole tags its synthesized announcement with
// BlackholeCommunity and annotates its AS_PATH with rib.AttackerSeenASN.
func TestInstallBlackholeAttachesCommunityAndAttackerSeenMarker(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROVppV01
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	ann := rib.Announcement{Prefix: p, Origin: 666666, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 666666}}
	Apply(as, ann)

	bh := as.LocRIB.Find(p)
	if bh == nil {
		t.Fatal("expected a blackhole entry in Loc-RIB")
	}
	if bh.Community != BlackholeCommunity {
		t.Fatalf("expected Community = %d, got %d", BlackholeCommunity, bh.Community)
	}
	seen := false
	for _, hop := range bh.ASPath {
		if hop == rib.AttackerSeenASN {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("expected rib.AttackerSeenASN in the blackhole's AS_PATH, got %v", bh.ASPath)
	}
}

// ROVpp 0.3 additionally synthesizes two preventive more-specific
// announcements, one per rib.PreventiveASN1/PreventiveASN2, each
// narrower than the attacker's prefix.
func TestROVppV03SynthesizesPreventiveAnnouncements(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROVppV03
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	ann := rib.Announcement{Prefix: p, Origin: 666666, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 666666}}
	Apply(as, ann)

	if len(as.Preventives) != 2 {
		t.Fatalf("expected 2 preventive announcements, got %d", len(as.Preventives))
	}
	wantOrigins := map[uint32]bool{rib.PreventiveASN1: false, rib.PreventiveASN2: false}
	for _, prevent := range as.Preventives {
		if prevent.Prefix.MaskLen() != p.MaskLen()+1 {
			t.Fatalf("expected a one-bit-narrower prefix, got mask %d", prevent.Prefix.MaskLen())
		}
		if (prevent.Prefix.Addr & p.Netmask) != p.Addr {
			t.Fatalf("preventive prefix %s does not fall within %s", prevent.Prefix.String(), p.String())
		}
		if _, ok := wantOrigins[prevent.Origin]; !ok {
			t.Fatalf("unexpected preventive origin %d", prevent.Origin)
		}
		wantOrigins[prevent.Origin] = true
		if got := as.LocRIB.Find(prevent.Prefix); got == nil || got.Origin != prevent.Origin {
			t.Fatalf("expected preventive announcement installed in Loc-RIB, got %+v", got)
		}
	}
	for origin, seen := range wantOrigins {
		if !seen {
			t.Fatalf("expected a preventive announcement from origin %d", origin)
		}
	}
}

// ROVpp 0.1 must not synthesize preventive announcements; only 0.3 does.
func TestROVppV01DoesNotSynthesizePreventive(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyROVppV01
	as.AttackerOrigins = map[uint32]struct{}{666666: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	ann := rib.Announcement{Prefix: p, Origin: 666666, ReceivedFromASN: 3, Priority: 288, ASPath: []uint32{3, 666666}}
	Apply(as, ann)

	if len(as.Preventives) != 0 {
		t.Fatalf("expected no preventive announcements under ROVpp 0.1, got %d", len(as.Preventives))
	}
}

// SecurityPriority must keep the relationship/hop base dominant: a
// one-unit-higher base always outranks every security/short-path bit
// combination at a lower base.
func TestSecurityPriorityKeepsRelationshipDominant(t *testing.T) {
	lowBaseSecureShort := SecurityPriority(100, true, true)
	nextBaseBare := SecurityPriority(101, false, false)
	if lowBaseSecureShort >= nextBaseBare {
		t.Fatalf("expected relationship base to dominate: SecurityPriority(100,true,true)=%d >= SecurityPriority(101,false,false)=%d",
			lowBaseSecureShort, nextBaseBare)
	}
}

// Strict BGPsec prefers the candidate whose path (with this AS
// prepended) is entirely adopters over one with a non-adopting hop,
// at equal relationship priority.
func TestRankEZBGPsecPrefersContiguousAdopterChain(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyEZBGPsec
	as.Adopters = map[uint32]struct{}{3: {}, 5: {}, 2: {}, 64500: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	secure := rib.Announcement{Prefix: p, Origin: 64500, ReceivedFromASN: 3, Priority: 188, ASPath: []uint32{3, 5, 64500}}
	insecure := rib.Announcement{Prefix: p, Origin: 64500, ReceivedFromASN: 9, Priority: 188, ASPath: []uint32{9, 5, 64500}}

	winner := RankEZBGPsec(as, []rib.Announcement{insecure, secure})
	if winner.ReceivedFromASN != 3 {
		t.Fatalf("expected the fully-adopted path to win, got received_from %d", winner.ReceivedFromASN)
	}
}

// Transitive BGPsec only needs any signed hop, not a full chain.
func TestRankEZBGPsecPrefersAnySignedHop(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyEZTransitiveBGPsec
	as.Adopters = map[uint32]struct{}{5: {}}

	p := mustParsePrefix(t, "203.0.113.0/24")
	signed := rib.Announcement{Prefix: p, Origin: 64500, ReceivedFromASN: 3, Priority: 188, ASPath: []uint32{3, 5, 64500}}
	unsigned := rib.Announcement{Prefix: p, Origin: 64500, ReceivedFromASN: 9, Priority: 188, ASPath: []uint32{9, 7, 64500}}

	winner := RankEZBGPsec(as, []rib.Announcement{unsigned, signed})
	if winner.ReceivedFromASN != 3 {
		t.Fatalf("expected the path with a signed hop to win, got received_from %d", winner.ReceivedFromASN)
	}
}

// A blacklisted origin is rejected and files a fresh suspect report
// for the next community-detection pass.
func TestEZBGPsecRejectsBlacklistedOriginAndReports(t *testing.T) {
	as := asgraph.NewAS(2, nil)
	as.Policy = asgraph.PolicyEZCommunityDetection
	as.Blacklist = map[uint32]struct{}{666666: {}}

	ann := rib.Announcement{Origin: 666666, ReceivedFromASN: 3, ASPath: []uint32{3, 666666}}
	if Apply(as, ann) {
		t.Fatal("expected EZBGPsec to reject a blacklisted origin")
	}
	if len(as.SuspectReports) != 1 {
		t.Fatalf("expected one suspect report, got %d", len(as.SuspectReports))
	}
	got := as.SuspectReports[0]
	if len(got) != 2 || got[0] != 3 || got[1] != 666666 {
		t.Fatalf("unexpected suspect report: %v", got)
	}
}
