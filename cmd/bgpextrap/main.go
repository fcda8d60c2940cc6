/* ==================================================================================== *\
    main.go

    Driver entry point: open the adapter, build the graph, load
    policy overlays, run the propagation driver.
\* ==================================================================================== */

package main

import (
	"log"
	"os"

	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/adapter/sqliteadapter"
	"github.com/anaximander-labs/bgpextrap/internal/engine"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
)

func main() {
	a := handleArgs(os.Args)
	setupLogging(a)

	store, err := sqliteadapter.Open(a.dbFile, a.stagingDir)
	if err != nil {
		log.Fatal("[main]: ", err)
	}
	defer store.Close()
	if a.announcementsTable != "" {
		store.AnnouncementsTable = a.announcementsTable
	}

	g, err := buildGraph(store, a.excludeAsn)
	if err != nil {
		log.Fatal("[main]: ", err)
	}
	g.Process()

	attackers, err := engine.LoadAttackerOrigins(store, a.simulationTable)
	if err != nil {
		log.Fatal("[main]: ", err)
	}
	if err := engine.LoadPolicyAssignments(g, store, a.policyTables, attackers); err != nil {
		log.Fatal("[main]: ", err)
	}
	applyPropagationFlags(g, &a, attackers)

	var pairs []adapter.SimulationPair
	if a.simulationTable != "" {
		ch, err := store.SelectSimulationPairs(a.simulationTable)
		if err != nil {
			log.Fatal("[main]: ", err)
		}
		for pair := range ch {
			pairs = append(pairs, pair)
		}
	}

	// Community-detection thresholds are not part of the CLI surface;
	// --ezbgpsec only gates whether the overlay runs at all (its round
	// count is not used beyond zero vs nonzero).
	const communityLocalThreshold = 3
	const communityGlobalThreshold = 10

	opts := engine.RunOptions{
		IterationSize:            uint32(a.iterationSize),
		OriginOnly:               !a.random,
		PropTwice:                a.propTwice || a.rovpp,
		Invert:                   a.invert,
		CommunityLocalThreshold:  communityLocalThreshold,
		CommunityGlobalThreshold: communityGlobalThreshold,
		SimulationPairs:          pairs,
		Emit: engine.EmitOptions{
			StagingDir:      a.stagingDir,
			ResultsTable:    a.resultsTable,
			DeprefTable:     a.deprefTable,
			Shards:          4,
			WithASPath:      a.invert || a.ezbgpsec > 0,
			VerificationASN: 0,
		},
	}
	if a.storeDepref {
		for _, as := range g.ASes {
			as.EnableDepref()
		}
	}

	stats, err := engine.Run(g, store, prefix.Zero, opts)
	if err != nil {
		log.Fatal("[main]: ", err)
	}
	log.Print("[main]: finished: ", stats.String())
}

// buildGraph streams load_relationships into a fresh graph, skipping
// the excluded ASN (0 disables exclusion) on both sides of every edge.
func buildGraph(a adapter.Adapter, excludeAsn int) (*asgraph.Graph, error) {
	g := asgraph.NewGraph()
	edges, err := a.LoadRelationships()
	if err != nil {
		return nil, err
	}
	exclude := uint32(excludeAsn)
	for edge := range edges {
		if excludeAsn != 0 && (edge.AsnA == exclude || edge.AsnB == exclude) {
			continue
		}
		switch edge.Rel {
		case adapter.ProviderOf:
			g.AddProviderCustomer(edge.AsnB, edge.AsnA)
		case adapter.PeerRelationship:
			g.AddPeer(edge.AsnA, edge.AsnB)
		}
	}
	return g, nil
}

// applyPropagationFlags sets the multihome-propagation interpretation
// and, when --rovpp is off, downgrades every ROV++ policy assignment
// to plain ROV (the driver's overlay selector is per-AS, but --rovpp
// gates whether any variant beyond ROV is honored at all).
func applyPropagationFlags(g *asgraph.Graph, a *runArgs, attackers map[uint32]struct{}) {
	for _, as := range g.ASes {
		if !a.rovpp {
			switch as.Policy {
			case asgraph.PolicyROVppV0, asgraph.PolicyROVppV01, asgraph.PolicyROVppV02, asgraph.PolicyROVppV03:
				as.Policy = asgraph.PolicyROV
			}
		}
		if a.ezbgpsec == 0 {
			switch as.Policy {
			case asgraph.PolicyEZDirectoryOnly, asgraph.PolicyEZCommunityDetection,
				asgraph.PolicyEZPathEnd, asgraph.PolicyEZBGPsec, asgraph.PolicyEZTransitiveBGPsec:
				as.Policy = asgraph.PolicyPlain
				as.AttackerOrigins = nil
			}
		}
		if a.mhMode == 0 {
			as.Multihome = false
		}
	}
}
