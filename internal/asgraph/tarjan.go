/* ============================================================= *\
   tarjan.go

   Strongly-connected-component detection over the provider-edge
   subgraph (customer->provider direction), with an explicit stack to
   avoid recursion depth blowing up on AS-graph-sized inputs.
   Condensation follows: for each SCC of size > 1, the supernode
   absorbs external edges and component_translation records every
   absorbed ASN.
\* ============================================================= */

package asgraph

// tarjanFrame is one explicit-stack frame of the iterative DFS: the
// AS being visited, the iterator position over its provider set, and
// the pre-collected provider ASN slice (so we can resume mid-loop).
type tarjanFrame struct {
	as        *AS
	providers []uint32
	pos       int
}

// Tarjan runs Tarjan's SCC algorithm over the provider-edge subgraph
// using an explicit DFS stack (no Go call-stack recursion).
func (g *Graph) Tarjan() {
	index := 0
	var nodeStack []*AS

	asns := make([]uint32, 0, len(g.ASes))
	for asn := range g.ASes {
		asns = append(asns, asn)
	}

	for _, startAsn := range asns {
		start := g.ASes[startAsn]
		if start.index != -1 {
			continue
		}
		g.tarjanDFS(start, &index, &nodeStack)
	}
}

func (g *Graph) tarjanDFS(root *AS, index *int, nodeStack *[]*AS) {
	var work []*tarjanFrame

	push := func(as *AS) {
		as.index = *index
		as.lowlink = *index
		*index++
		*nodeStack = append(*nodeStack, as)
		as.onStack = true

		providers := make([]uint32, 0, len(as.Providers))
		for p := range as.Providers {
			providers = append(providers, p)
		}
		work = append(work, &tarjanFrame{as: as, providers: providers})
	}

	push(root)

	for len(work) > 0 {
		frame := work[len(work)-1]
		as := frame.as

		if frame.pos < len(frame.providers) {
			neighborAsn := frame.providers[frame.pos]
			frame.pos++
			neighbor, ok := g.ASes[neighborAsn]
			if !ok {
				continue
			}
			if neighbor.index == -1 {
				push(neighbor)
				continue
			} else if neighbor.onStack {
				if neighbor.index < as.lowlink {
					as.lowlink = neighbor.index
				}
			}
			continue
		}

		// All providers visited: pop this frame.
		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := work[len(work)-1].as
			if as.lowlink < parent.lowlink {
				parent.lowlink = as.lowlink
			}
		}

		if as.lowlink == as.index {
			var component []uint32
			for {
				n := len(*nodeStack)
				top := (*nodeStack)[n-1]
				*nodeStack = (*nodeStack)[:n-1]
				top.onStack = false
				component = append(component, top.ASN)
				if top == as {
					break
				}
			}
			g.Components = append(g.Components, component)
		}
	}
}

// CombineComponents merges providers/peers/customers of ASes in each
// strongly connected component of size > 1 into a single supernode
// AS identified by the lowest member ASN. Peer edges that would
// duplicate an existing provider/customer edge on the supernode are
// discarded.
func (g *Graph) CombineComponents() {
	for _, component := range g.Components {
		if len(component) <= 1 {
			continue
		}

		combinedAsn := component[0]
		for _, asn := range component {
			if asn < combinedAsn {
				combinedAsn = asn
			}
		}

		memberSet := make(map[uint32]struct{}, len(component))
		for _, asn := range component {
			memberSet[asn] = struct{}{}
		}

		combined := NewAS(combinedAsn, g.inverseResults)
		combined.MemberASes = append([]uint32{}, component...)

		for _, curAsn := range component {
			cur := g.ASes[curAsn]

			for providerAsn := range cur.Providers {
				if _, internal := memberSet[providerAsn]; internal {
					continue
				}
				provider, ok := g.ASes[providerAsn]
				if !ok {
					continue
				}
				combined.AddNeighbor(providerAsn, RelProvider)
				provider.AddNeighbor(combinedAsn, RelCustomer)
				combined.RemoveNeighbor(providerAsn, RelPeer)
				provider.RemoveNeighbor(curAsn, RelPeer)
			}
			for customerAsn := range cur.Customers {
				if _, internal := memberSet[customerAsn]; internal {
					continue
				}
				customer, ok := g.ASes[customerAsn]
				if !ok {
					continue
				}
				combined.AddNeighbor(customerAsn, RelCustomer)
				customer.AddNeighbor(combinedAsn, RelProvider)
				combined.RemoveNeighbor(customerAsn, RelPeer)
				customer.RemoveNeighbor(curAsn, RelPeer)
			}
			for peerAsn := range cur.Peers {
				if _, internal := memberSet[peerAsn]; internal {
					continue
				}
				peer, ok := g.ASes[peerAsn]
				if !ok {
					continue
				}
				if _, already := combined.Providers[peerAsn]; already {
					continue
				}
				if _, already := combined.Customers[peerAsn]; already {
					continue
				}
				combined.AddNeighbor(peerAsn, RelPeer)
				peer.AddNeighbor(combinedAsn, RelPeer)
				peer.RemoveNeighbor(curAsn, RelPeer)
			}

			g.ComponentTranslation[curAsn] = combinedAsn
			delete(g.ASes, curAsn)
		}

		g.ASes[combinedAsn] = combined
	}
}
