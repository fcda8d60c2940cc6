/* ============================================================= *\
   graph.go

   ASN -> AS index; relationship loading; stub removal.
\* ============================================================= */

package asgraph

import (
	"log"

	"github.com/anaximander-labs/bgpextrap/internal/prefix"
)

// Graph is the ASN->AS index plus SCC/ranking bookkeeping.
type Graph struct {
	ASes                 map[uint32]*AS
	ASesByRank           [][]uint32 // index 0 is the customer-free bottom of the DAG
	Components           [][]uint32
	ComponentTranslation map[uint32]uint32
	StubsToParents       map[uint32]uint32
	NonStubs             []uint32

	inverseResults map[InverseKey]map[uint32]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		ASes:                 make(map[uint32]*AS),
		ComponentTranslation: make(map[uint32]uint32),
		StubsToParents:       make(map[uint32]uint32),
		inverseResults:       make(map[InverseKey]map[uint32]struct{}),
	}
}

// getOrCreate materializes an AS node on first mention.
func (g *Graph) getOrCreate(asn uint32) *AS {
	as, ok := g.ASes[asn]
	if !ok {
		as = NewAS(asn, g.inverseResults)
		g.ASes[asn] = as
	}
	return as
}

// AddRelationship adds asn's relationship to neighborAsn (rel is one
// of RelProvider/RelPeer/RelCustomer, from asn's point of view).
func (g *Graph) AddRelationship(asn, neighborAsn uint32, rel int) {
	g.getOrCreate(asn).AddNeighbor(neighborAsn, rel)
}

// AddProviderCustomer wires a customer->provider edge symmetrically:
// customer gets the provider relation, provider gets the customer
// relation. Unknown ASNs are materialized on first mention.
func (g *Graph) AddProviderCustomer(customerAsn, providerAsn uint32) {
	g.AddRelationship(customerAsn, providerAsn, RelProvider)
	g.AddRelationship(providerAsn, customerAsn, RelCustomer)
}

// AddPeer wires a symmetric peer edge.
func (g *Graph) AddPeer(a, b uint32) {
	g.AddRelationship(a, b, RelPeer)
	g.AddRelationship(b, a, RelPeer)
}

// TranslateASN translates asn to its supernode identifier via
// component_translation; absent entries translate to themselves.
func (g *Graph) TranslateASN(asn uint32) uint32 {
	if t, ok := g.ComponentTranslation[asn]; ok {
		return t
	}
	return asn
}

// Get looks up an AS by ASN. Translation through ComponentTranslation
// is the caller's responsibility.
func (g *Graph) Get(asn uint32) (*AS, bool) {
	as, ok := g.ASes[asn]
	return as, ok
}

// RemoveStubs elides stub ASes -- zero peers, zero customers, exactly
// one provider -- before SCC detection. Stubs are
// recorded in StubsToParents and dropped from the active graph; their
// parent loses the stub from its customer set.
func (g *Graph) RemoveStubs() {
	var toRemove []*AS
	for _, as := range g.ASes {
		if len(as.Peers) == 0 && len(as.Customers) == 0 && len(as.Providers) == 1 {
			toRemove = append(toRemove, as)
		} else {
			g.NonStubs = append(g.NonStubs, as.ASN)
		}
	}
	for _, as := range toRemove {
		for providerAsn := range as.Providers {
			if provider, ok := g.ASes[providerAsn]; ok {
				delete(provider.Customers, as.ASN)
			}
			g.StubsToParents[as.ASN] = providerAsn
		}
		delete(g.ASes, as.ASN)
	}
}

// ClearAnnouncements clears all per-AS RIBs and the inverse-result
// sets.
func (g *Graph) ClearAnnouncements() {
	for _, as := range g.ASes {
		as.ClearAnnouncements()
	}
	for k := range g.inverseResults {
		delete(g.inverseResults, k)
	}
}

// TrackInverseResult ensures an inverse-result set exists for
// (p, origin) and returns it, creating it on first seed.
func (g *Graph) TrackInverseResult(p prefix.Prefix, origin uint32) map[uint32]struct{} {
	key := InverseKey{Prefix: p, Origin: origin}
	set, ok := g.inverseResults[key]
	if !ok {
		set = make(map[uint32]struct{})
		for asn := range g.ASes {
			set[asn] = struct{}{}
		}
		g.inverseResults[key] = set
	}
	return set
}

// InverseResultSet returns the existing inverse-result set for
// (p, origin), or nil if none has been tracked.
func (g *Graph) InverseResultSet(p prefix.Prefix, origin uint32) map[uint32]struct{} {
	return g.inverseResults[InverseKey{Prefix: p, Origin: origin}]
}

// Process runs the full one-time graph preparation sequence: stub
// removal, SCC condensation, ranking. Fatal on internal
// inconsistency.
func (g *Graph) Process() {
	g.RemoveStubs()
	g.Tarjan()
	g.CombineComponents()
	if err := g.DecideRanks(); err != nil {
		log.Fatal("[Graph.Process]: ", err)
	}
}
