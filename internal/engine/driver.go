/* ============================================================= *\
   driver.go

   The top-level per-block loop: plan blocks once, then for each
   block select its announcement rows, seed them, propagate up/down
   (twice if --prop-twice), emit, and clear before moving on.
\* ============================================================= */

package engine

import (
	"log"

	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/community"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// RunOptions configures a full propagation run.
type RunOptions struct {
	IterationSize uint32
	OriginOnly    bool // --random=false equivalent: seed origin only
	PropTwice     bool
	Invert        bool
	Emit          EmitOptions

	// CommunityLocalThreshold/CommunityGlobalThreshold configure the
	// community-detection pass; zero disables both filters but the
	// pass still runs (harmlessly, producing an empty blacklist) when
	// any AS filed a suspect report.
	CommunityLocalThreshold  int
	CommunityGlobalThreshold int

	// SimulationPairs seeds ROV++/EZBGPsec attacker/victim paths
	// alongside each block's ordinary monitor rows, whenever a pair's
	// prefix falls inside that block.
	SimulationPairs []adapter.SimulationPair
}

// Run plans the address space into blocks, then drives seeding,
// propagation, and emission block by block. Graph preparation
// (stub removal, SCC condensation, ranking) must already have run
// via g.Process() before Run is called.
func Run(g *asgraph.Graph, a adapter.Adapter, root prefix.Prefix, opts RunOptions) (*Stats, error) {
	stats := &Stats{}
	detector := community.NewDetector(opts.CommunityLocalThreshold, opts.CommunityGlobalThreshold)

	plan, err := PlanBlocks(a, root, opts.IterationSize)
	if err != nil {
		return stats, err
	}

	iteration := 0
	for _, block := range plan.SubnetBlocks {
		if err := runBlock(g, a, block, false, &iteration, opts, stats, detector); err != nil {
			return stats, err
		}
	}
	for _, block := range plan.OversizedPrefix {
		if err := runBlock(g, a, block, true, &iteration, opts, stats, detector); err != nil {
			return stats, err
		}
	}

	log.Print("[engine.Run]: ", stats.String())
	return stats, nil
}

func runBlock(g *asgraph.Graph, a adapter.Adapter, block prefix.Prefix, oversized bool, iteration *int, opts RunOptions, stats *Stats, detector *community.Detector) error {
	var rows <-chan adapter.AnnRow
	var err error
	if oversized {
		rows, err = a.SelectPrefixAnn(block)
	} else {
		rows, err = a.SelectSubnetAnn(block)
	}
	if err != nil {
		return err
	}

	seeded := false
	for _, pair := range opts.SimulationPairs {
		if !pair.Prefix.Contains(block) {
			continue
		}
		seeded = true
		stats.AnnouncementsSeen++
		if FindLoop(pair.ASPath) {
			stats.Loops++
			continue
		}
		if opts.Invert {
			g.TrackInverseResult(pair.Prefix, pair.Origin)
		}
		if opts.OriginOnly {
			SeedOriginOnly(g, pair.ASPath, pair.Prefix, 0)
		} else {
			SeedAlongPath(g, pair.ASPath, pair.Prefix, 0, stats)
		}
	}
	for row := range rows {
		seeded = true
		stats.AnnouncementsSeen++
		path, malformed := rib.ParseASPath(row.ASPathWire)
		for _, tok := range malformed {
			log.Print("[engine.runBlock]: malformed AS_PATH token: ", tok)
			stats.MalformedPrefixes++
		}
		if len(path) == 0 {
			continue
		}
		if FindLoop(path) {
			stats.Loops++
			continue
		}
		p := prefix.Prefix{Addr: row.Host, Netmask: row.Netmask}
		if opts.Invert {
			g.TrackInverseResult(p, row.Origin)
		}
		if opts.OriginOnly {
			SeedOriginOnly(g, path, p, row.Time)
		} else {
			SeedAlongPath(g, path, p, row.Time, stats)
		}
	}
	if !seeded {
		return nil
	}

	passes := 1
	if opts.PropTwice {
		passes = 2
	}
	for i := 0; i < passes; i++ {
		PropagateUp(g)
		RunCommunityDetection(g, detector)
		PropagateDown(g)
		RunCommunityDetection(g, detector)
	}

	emitOpts := opts.Emit
	emitOpts.Iteration = *iteration
	stats.BlocksProcessed++
	*iteration++

	if err := EmitResults(g, a, emitOpts); err != nil {
		return err
	}
	g.ClearAnnouncements()
	return nil
}
