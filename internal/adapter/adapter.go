/* ============================================================= *\
   adapter.go

   The relational-store adapter interface: the driver's only window
   onto persisted relationships, announcement rows, and result sinks.
   Two concrete implementations live alongside this package:
   sqliteadapter and memadapter.
\* ============================================================= */

package adapter

import "github.com/anaximander-labs/bgpextrap/internal/prefix"

// RelationshipKind distinguishes the two edge streams the adapter
// supplies.
type RelationshipKind int

const (
	ProviderOf RelationshipKind = iota
	PeerRelationship
)

// Relationship is one edge from load_relationships().
type Relationship struct {
	AsnA uint32
	AsnB uint32
	Rel  RelationshipKind
}

// AnnRow is one row returned by select_prefix_ann / select_subnet_ann:
// (host, netmask, as_path_string, origin, time, roa_validity?).
type AnnRow struct {
	Host        uint32
	Netmask     uint32
	ASPathWire  string // curly-brace CSV wire format, most-recent first
	Origin      uint32
	Time        int64
	ROAValidity *int // nil if not present/applicable
}

// PolicyAssignment is one row from select_policy_assignments.
type PolicyAssignment struct {
	ASN       uint32
	ASType    string // e.g. "rov", "rovpp0", "rovpp0.1", "ezbgpsec-bgpsec", ...
	Impliment bool
}

// SimulationPair is one row from select_simulation_pairs (ROV++ /
// EZBGPsec attacker/victim seed pairs).
type SimulationPair struct {
	Prefix prefix.Prefix
	ASPath []uint32 // origin last
	Origin uint32
}

// Adapter is the pluggable relational-store collaborator consumed by
// the propagation driver.
type Adapter interface {
	// LoadRelationships streams customer<->provider and peer<->peer
	// edges.
	LoadRelationships() (<-chan Relationship, error)

	// SelectSubnetCount and SelectPrefixCount feed the block planner's
	// working-set size estimate.
	SelectSubnetCount(p prefix.Prefix) (uint32, error)
	SelectPrefixCount(p prefix.Prefix) (uint32, error)

	// SelectPrefixAnn and SelectSubnetAnn return the announcement
	// rows seeding a prefix block.
	SelectPrefixAnn(p prefix.Prefix) (<-chan AnnRow, error)
	SelectSubnetAnn(p prefix.Prefix) (<-chan AnnRow, error)

	// CopyResults bulk-ingests a CSV staging file into tableName.
	CopyResults(stagingFile, tableName string) error

	// SelectPolicyAssignments streams (asn, as_type, impliment) rows
	// for a given policy table name.
	SelectPolicyAssignments(table string) (<-chan PolicyAssignment, error)

	// SelectSimulationPairs streams ROV++/EZBGPsec attacker seed
	// pairs for a given simulation table name.
	SelectSimulationPairs(table string) (<-chan SimulationPair, error)
}
