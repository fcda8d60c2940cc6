/* ============================================================= *\
   policyload.go

   Wires the adapter's policy-assignment and simulation-pair tables
   onto the graph: which AS runs which overlay, and the shared
   attacker-origin set every adopting AS checks incoming announcements
   against.
\* ============================================================= */

package engine

import (
	"log"

	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/policy"
)

// asTypeToPolicy maps the adapter's as_type strings to a PolicyTag.
// Unrecognized types default to plain BGP.
func asTypeToPolicy(asType string) asgraph.PolicyTag {
	switch asType {
	case "rov":
		return asgraph.PolicyROV
	case "rovpp0":
		return asgraph.PolicyROVppV0
	case "rovpp0.1":
		return asgraph.PolicyROVppV01
	case "rovpp0.2":
		return asgraph.PolicyROVppV02
	case "rovpp0.3":
		return asgraph.PolicyROVppV03
	case "ezbgpsec-directory":
		return asgraph.PolicyEZDirectoryOnly
	case "ezbgpsec-community":
		return asgraph.PolicyEZCommunityDetection
	case "ezbgpsec-pathend":
		return asgraph.PolicyEZPathEnd
	case "ezbgpsec-bgpsec":
		return asgraph.PolicyEZBGPsec
	case "ezbgpsec-transitive":
		return asgraph.PolicyEZTransitiveBGPsec
	default:
		return asgraph.PolicyPlain
	}
}

// attackerAware reports whether policy rejects announcements from the
// shared attacker-origin set at intake.
func attackerAware(policy asgraph.PolicyTag) bool {
	switch policy {
	case asgraph.PolicyROV, asgraph.PolicyROVppV0, asgraph.PolicyROVppV01,
		asgraph.PolicyROVppV02, asgraph.PolicyROVppV03,
		asgraph.PolicyEZDirectoryOnly, asgraph.PolicyEZCommunityDetection,
		asgraph.PolicyEZPathEnd, asgraph.PolicyEZBGPsec, asgraph.PolicyEZTransitiveBGPsec:
		return true
	default:
		return false
	}
}

// bgpsecSigner reports whether policy actually signs announcements
// (as opposed to merely validating them): the two tiers whose AS_PATH
// hops RankEZBGPsec's adopter-chain/signed-hop checks look for.
func bgpsecSigner(policy asgraph.PolicyTag) bool {
	return policy == asgraph.PolicyEZBGPsec || policy == asgraph.PolicyEZTransitiveBGPsec
}

// LoadAttackerOrigins streams simulationTable's (prefix, as_path,
// origin) rows and collects every origin ASN into a single shared
// set: the loader-supplied attacker designation every adopting AS's
// ROV-style check consults.
func LoadAttackerOrigins(a adapter.Adapter, simulationTable string) (map[uint32]struct{}, error) {
	attackers := make(map[uint32]struct{})
	if simulationTable == "" {
		return attackers, nil
	}
	pairs, err := a.SelectSimulationPairs(simulationTable)
	if err != nil {
		return nil, err
	}
	for pair := range pairs {
		attackers[pair.Origin] = struct{}{}
	}
	return attackers, nil
}

// LoadPolicyAssignments streams every table in policyTables and
// assigns each row's AS its policy, sharing attackers as the
// AttackerOrigins set for any policy-aware AS. Unknown ASNs (absent
// from the graph, e.g. already stub-eliminated) are skipped.
func LoadPolicyAssignments(g *asgraph.Graph, a adapter.Adapter, policyTables []string, attackers map[uint32]struct{}) error {
	// adopters is one shared map handed out to every EZBGPsec-tier AS;
	// since a map is a reference type, members added while later rows
	// are still being processed become visible to ASes assigned
	// earlier in the same pass too.
	adopters := make(map[uint32]struct{})
	for _, table := range policyTables {
		rows, err := a.SelectPolicyAssignments(table)
		if err != nil {
			return err
		}
		for row := range rows {
			if !row.Impliment {
				continue
			}
			as, ok := g.Get(g.TranslateASN(row.ASN))
			if !ok {
				log.Print("[engine.LoadPolicyAssignments]: unknown ASN ", row.ASN, " in table ", table)
				continue
			}
			tag := asTypeToPolicy(row.ASType)
			as.Policy = tag
			if attackerAware(tag) {
				as.AttackerOrigins = attackers
			}
			if bgpsecSigner(tag) {
				adopters[as.ASN] = struct{}{}
			}
			if policy.IsEZBGPsec(tag) {
				as.Adopters = adopters
			}
		}
	}
	return nil
}
