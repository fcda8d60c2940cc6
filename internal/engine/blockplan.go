/* ============================================================= *\
   blockplan.go

   Recursive IPv4-space bisection: count announcements in a subnet,
   emit it as a block if under the iteration-size threshold,
   otherwise split by extending the netmask by one bit and recurse.
   Oversized individual prefixes (more announcements than the whole
   subnet threshold allows even at /32) are tracked separately for
   per-prefix processing.

   Planned block coverage is recorded in a radix tree keyed by the
   prefix's binary-string encoding, the same structure and encoding
   overlays_processing.go builds over routing-table entries -- here
   used to track which blocks of the address space the plan already
   covers, rather than to find routing overlays.
\* ============================================================= */

package engine

import (
	radix "github.com/Emeline-1/radix"

	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
)

// BlockPlan is the flat, non-overlapping list of blocks a planning
// pass produced, split into ordinary subnet blocks and individually
// oversized prefixes.
type BlockPlan struct {
	SubnetBlocks    []prefix.Prefix
	OversizedPrefix []prefix.Prefix

	coverage *radix.Tree
}

// PlanBlocks recursively bisects root until every resulting subnet's
// announcement count is at or under iterationSize, or the subnet has
// reached /32 (host) granularity, in which case it is reported as
// oversized instead of split further.
func PlanBlocks(a adapter.Adapter, root prefix.Prefix, iterationSize uint32) (*BlockPlan, error) {
	plan := &BlockPlan{coverage: radix.New()}
	if err := planRecursive(a, root, iterationSize, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func planRecursive(a adapter.Adapter, p prefix.Prefix, iterationSize uint32, plan *BlockPlan) error {
	count, err := a.SelectSubnetCount(p)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if count <= iterationSize {
		plan.SubnetBlocks = append(plan.SubnetBlocks, p)
		plan.coverage.Insert(p.BinaryString(), p)
		return nil
	}
	if p.MaskLen() >= prefix.IPv4PrefixLen {
		prefixCount, err := a.SelectPrefixCount(p)
		if err != nil {
			return err
		}
		if prefixCount > 0 {
			plan.OversizedPrefix = append(plan.OversizedPrefix, p)
			plan.coverage.Insert(p.BinaryString(), p)
		}
		return nil
	}

	halves := p.Subnets(p.MaskLen() + 1)
	for _, half := range halves {
		if err := planRecursive(a, half, iterationSize, plan); err != nil {
			return err
		}
	}
	return nil
}
