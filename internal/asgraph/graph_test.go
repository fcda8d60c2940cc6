package asgraph

import "testing"

// After graph load, every provider edge has a matching customer edge
// on the other side, and peer edges are mutual.
func TestRelationshipSymmetry(t *testing.T) {
	g := NewGraph()
	g.AddProviderCustomer(2, 1) // 2 is customer of 1
	g.AddPeer(2, 3)

	as2 := g.ASes[2]
	as1 := g.ASes[1]
	as3 := g.ASes[3]

	if _, ok := as2.Providers[1]; !ok {
		t.Fatal("AS 2 should have AS 1 as provider")
	}
	if _, ok := as1.Customers[2]; !ok {
		t.Fatal("AS 1 should have AS 2 as customer")
	}
	if _, ok := as2.Peers[3]; !ok {
		t.Fatal("AS 2 should have AS 3 as peer")
	}
	if _, ok := as3.Peers[2]; !ok {
		t.Fatal("AS 3 should have AS 2 as peer")
	}
}

// Every ASN in an SCC of size >= 2 translates to the minimum member,
// the supernode exists, and the original ASN does not.
func TestSupernodeTranslationClosure(t *testing.T) {
	g := NewGraph()
	// 5 <-> 6 <-> 7 form a provider cycle (mutual providers), 8 is the
	// cycle's sole external customer.
	g.AddRelationship(5, 6, RelProvider)
	g.AddRelationship(6, 5, RelProvider)
	g.AddRelationship(6, 7, RelProvider)
	g.AddRelationship(7, 6, RelProvider)
	g.AddRelationship(7, 5, RelProvider)
	g.AddRelationship(5, 7, RelProvider)
	g.AddProviderCustomer(8, 5)

	g.Tarjan()
	g.CombineComponents()

	min := uint32(5)
	for _, asn := range []uint32{5, 6, 7} {
		if translated := g.TranslateASN(asn); translated != min {
			t.Fatalf("TranslateASN(%d) = %d, want %d", asn, translated, min)
		}
	}
	if _, ok := g.Get(min); !ok {
		t.Fatalf("supernode %d must exist in the graph", min)
	}
	for _, asn := range []uint32{6, 7} {
		if _, ok := g.Get(asn); ok {
			t.Fatalf("original ASN %d must not remain in the graph after condensation", asn)
		}
	}
}

// For every customer->provider edge in the condensed graph,
// rank(provider) > rank(customer).
func TestRankCorrectness(t *testing.T) {
	g := NewGraph()
	g.AddProviderCustomer(2, 1) // 2 customer of 1
	g.AddProviderCustomer(3, 2) // 3 customer of 2

	g.RemoveStubs()
	g.Tarjan()
	g.CombineComponents()
	if err := g.DecideRanks(); err != nil {
		t.Fatalf("DecideRanks: %v", err)
	}

	for _, as := range g.ASes {
		for providerAsn := range as.Providers {
			provider, ok := g.Get(g.TranslateASN(providerAsn))
			if !ok {
				continue
			}
			if provider.Rank <= as.Rank {
				t.Fatalf("rank(%d)=%d must exceed rank(%d)=%d", provider.ASN, provider.Rank, as.ASN, as.Rank)
			}
		}
	}
}

func TestTieBreakDeterministic(t *testing.T) {
	first := TieBreak(13796)
	for i := 0; i < 5; i++ {
		if got := TieBreak(13796); got != first {
			t.Fatalf("TieBreak(13796) must be deterministic across calls, got %v want %v", got, first)
		}
	}
}
