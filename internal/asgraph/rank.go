/* ============================================================= *\
   rank.go

   Bottom-up DAG ranking: rank(provider) > rank(customer) for every
   customer->provider edge in the condensed graph.
\* ============================================================= */

package asgraph

import "errors"

// DecideRanks assigns ranks to every AS in the condensed graph.
// Rank 0 is the customer-free bottom of the DAG; rank is the length
// of the longest customer->provider chain below the node.
// Returns an error if ranking does not converge, which signals an
// internal SCC-stack or ranking inconsistency rather than a bad input.
func (g *Graph) DecideRanks() error {
	g.ASesByRank = g.ASesByRank[:0]
	g.ASesByRank = append(g.ASesByRank, nil)

	for _, as := range g.ASes {
		as.Rank = -1
	}

	for _, as := range g.ASes {
		if len(as.Customers) == 0 {
			g.ASesByRank[0] = append(g.ASesByRank[0], as.ASN)
			as.Rank = 0
		}
	}

	rankSets := []map[uint32]struct{}{toSet(g.ASesByRank[0])}

	i := 0
	for len(rankSets[i]) > 0 {
		nextSet := make(map[uint32]struct{})
		for asn := range rankSets[i] {
			as, ok := g.ASes[asn]
			if !ok {
				return errors.New("ranking: AS present in rank set but absent from graph (ASN " +
					uitoa(asn) + ")")
			}
			for providerAsn := range as.Providers {
				translated := g.TranslateASN(providerAsn)
				provider, ok := g.ASes[translated]
				if !ok {
					continue
				}
				if provider.Rank < i+1 {
					oldRank := provider.Rank
					provider.Rank = i + 1
					nextSet[translated] = struct{}{}
					if oldRank != -1 {
						delete(rankSets[oldRank], translated)
						removeFromSlice(&g.ASesByRank[oldRank], translated)
					}
				}
			}
		}
		rankSets = append(rankSets, nextSet)
		g.ASesByRank = append(g.ASesByRank, setToSlice(nextSet))
		i++
		if i > len(g.ASes)+2 {
			return errors.New("ranking: did not converge within |ASes|+2 levels")
		}
	}

	// Trailing empty level produced by the termination check.
	if len(g.ASesByRank) > 0 && len(g.ASesByRank[len(g.ASesByRank)-1]) == 0 {
		g.ASesByRank = g.ASesByRank[:len(g.ASesByRank)-1]
	}
	return nil
}

func toSet(s []uint32) map[uint32]struct{} {
	m := make(map[uint32]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return m
}

func setToSlice(m map[uint32]struct{}) []uint32 {
	s := make([]uint32, 0, len(m))
	for v := range m {
		s = append(s, v)
	}
	return s
}

func removeFromSlice(s *[]uint32, v uint32) {
	for i, x := range *s {
		if x == v {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
