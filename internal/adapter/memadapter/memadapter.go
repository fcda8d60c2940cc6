/* ============================================================= *\
   memadapter.go

   In-memory fixture adapter for engine tests: a plain struct of
   pre-populated slices and maps standing in for the relational
   store, so engine tests run without a database file.
\* ============================================================= */

package memadapter

import (
	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
)

// MemAdapter is a fixed, in-memory Adapter backing engine tests.
type MemAdapter struct {
	Relationships []adapter.Relationship
	AnnRows       map[prefix.Prefix][]adapter.AnnRow // keyed by the exact block prefix requested
	Policies      map[string][]adapter.PolicyAssignment
	SimPairs      map[string][]adapter.SimulationPair

	Copied []CopiedFile
}

type CopiedFile struct {
	StagingFile string
	TableName   string
}

func New() *MemAdapter {
	return &MemAdapter{
		AnnRows:  make(map[prefix.Prefix][]adapter.AnnRow),
		Policies: make(map[string][]adapter.PolicyAssignment),
		SimPairs: make(map[string][]adapter.SimulationPair),
	}
}

func (m *MemAdapter) LoadRelationships() (<-chan adapter.Relationship, error) {
	ch := make(chan adapter.Relationship, len(m.Relationships))
	for _, r := range m.Relationships {
		ch <- r
	}
	close(ch)
	return ch, nil
}

func (m *MemAdapter) SelectSubnetCount(p prefix.Prefix) (uint32, error) {
	return uint32(len(m.AnnRows[p])), nil
}

func (m *MemAdapter) SelectPrefixCount(p prefix.Prefix) (uint32, error) {
	return uint32(len(m.AnnRows[p])), nil
}

func (m *MemAdapter) SelectPrefixAnn(p prefix.Prefix) (<-chan adapter.AnnRow, error) {
	rows := m.AnnRows[p]
	ch := make(chan adapter.AnnRow, len(rows))
	for _, r := range rows {
		ch <- r
	}
	close(ch)
	return ch, nil
}

func (m *MemAdapter) SelectSubnetAnn(p prefix.Prefix) (<-chan adapter.AnnRow, error) {
	return m.SelectPrefixAnn(p)
}

func (m *MemAdapter) CopyResults(stagingFile, tableName string) error {
	m.Copied = append(m.Copied, CopiedFile{StagingFile: stagingFile, TableName: tableName})
	return nil
}

func (m *MemAdapter) SelectPolicyAssignments(table string) (<-chan adapter.PolicyAssignment, error) {
	rows := m.Policies[table]
	ch := make(chan adapter.PolicyAssignment, len(rows))
	for _, r := range rows {
		ch <- r
	}
	close(ch)
	return ch, nil
}

func (m *MemAdapter) SelectSimulationPairs(table string) (<-chan adapter.SimulationPair, error) {
	rows := m.SimPairs[table]
	ch := make(chan adapter.SimulationPair, len(rows))
	for _, r := range rows {
		ch <- r
	}
	close(ch)
	return ch, nil
}
