/* ============================================================= *\
   sqliteadapter.go

   Adapter implementation backed by database/sql + go-sqlite3,
   grounded in readers.go's SqliteReader/ReadSqlite (sql.Open,
   rows.Scan) and ASGraph.cpp's save_stubs_to_db/save_non_stubs_to_db
   staging-file-then-bulk-copy pattern (mkdir -p /dev/shm/bgp, write
   CSV, COPY/bulk-ingest, delete).
\* ============================================================= */

package sqliteadapter

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// SqliteAdapter implements adapter.Adapter against a sqlite3 database
// file, with CSV staging files under StagingDir for CopyResults.
type SqliteAdapter struct {
	db         *sql.DB
	StagingDir string // e.g. "/dev/shm/bgp"

	RelationshipsTable string // default "as_relationships"
	AnnouncementsTable string // default "mrt_announcements"
}

// Open opens the sqlite3 database at filename, registering the
// driver for its side effect exactly as readers.go's blank import
// does.
func Open(filename, stagingDir string) (*SqliteAdapter, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("[sqliteadapter.Open]: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("[sqliteadapter.Open]: %w", err)
	}
	if stagingDir == "" {
		stagingDir = "/dev/shm/bgp"
	}
	if err := os.MkdirAll(stagingDir, 0777); err != nil {
		return nil, fmt.Errorf("[sqliteadapter.Open]: staging dir: %w", err)
	}
	return &SqliteAdapter{
		db:                 db,
		StagingDir:         stagingDir,
		RelationshipsTable: "as_relationships",
		AnnouncementsTable: "mrt_announcements",
	}, nil
}

func (a *SqliteAdapter) Close() error {
	return a.db.Close()
}

// LoadRelationships reads "asn_a, asn_b, rel" rows from
// RelationshipsTable. rel is "provider_of" or "peer".
func (a *SqliteAdapter) LoadRelationships() (<-chan adapter.Relationship, error) {
	rows, err := a.db.Query("SELECT asn_a, asn_b, rel FROM " + a.RelationshipsTable)
	if err != nil {
		return nil, fmt.Errorf("[LoadRelationships]: %w", err)
	}
	ch := make(chan adapter.Relationship, 256)
	go func() {
		defer rows.Close()
		defer close(ch)
		for rows.Next() {
			var asnA, asnB uint32
			var relStr string
			if err := rows.Scan(&asnA, &asnB, &relStr); err != nil {
				log.Print("[LoadRelationships]: ", err)
				continue
			}
			rel := adapter.PeerRelationship
			if relStr == "provider_of" {
				rel = adapter.ProviderOf
			}
			ch <- adapter.Relationship{AsnA: asnA, AsnB: asnB, Rel: rel}
		}
	}()
	return ch, nil
}

func (a *SqliteAdapter) SelectSubnetCount(p prefix.Prefix) (uint32, error) {
	return a.selectCount(p, true)
}

func (a *SqliteAdapter) SelectPrefixCount(p prefix.Prefix) (uint32, error) {
	return a.selectCount(p, false)
}

func (a *SqliteAdapter) selectCount(p prefix.Prefix, subnet bool) (uint32, error) {
	query := "SELECT COUNT(*) FROM " + a.AnnouncementsTable + " WHERE (host & ?) = ?"
	if subnet {
		query += " AND netmask >= ?"
	} else {
		query += " AND netmask = ?"
	}
	var n uint32
	err := a.db.QueryRow(query, p.Netmask, p.Addr&p.Netmask, p.Netmask).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("[selectCount]: %w", err)
	}
	return n, nil
}

func (a *SqliteAdapter) SelectPrefixAnn(p prefix.Prefix) (<-chan adapter.AnnRow, error) {
	return a.selectAnn(p, "netmask = ?")
}

func (a *SqliteAdapter) SelectSubnetAnn(p prefix.Prefix) (<-chan adapter.AnnRow, error) {
	return a.selectAnn(p, "netmask >= ?")
}

func (a *SqliteAdapter) selectAnn(p prefix.Prefix, maskClause string) (<-chan adapter.AnnRow, error) {
	query := fmt.Sprintf(
		"SELECT host, netmask, as_path, origin, tstamp, roa_validity FROM %s WHERE (host & ?) = ? AND %s",
		a.AnnouncementsTable, maskClause)
	rows, err := a.db.Query(query, p.Netmask, p.Addr&p.Netmask, p.Netmask)
	if err != nil {
		return nil, fmt.Errorf("[selectAnn]: %w", err)
	}
	ch := make(chan adapter.AnnRow, 256)
	go func() {
		defer rows.Close()
		defer close(ch)
		for rows.Next() {
			var host, netmask uint32
			var asPath string
			var origin uint32
			var tstamp int64
			var roa sql.NullInt64
			if err := rows.Scan(&host, &netmask, &asPath, &origin, &tstamp, &roa); err != nil {
				log.Print("[selectAnn]: ", err)
				continue
			}
			row := adapter.AnnRow{Host: host, Netmask: netmask, ASPathWire: asPath, Origin: origin, Time: tstamp}
			if roa.Valid {
				v := int(roa.Int64)
				row.ROAValidity = &v
			}
			ch <- row
		}
	}()
	return ch, nil
}

// CopyResults bulk-ingests a CSV staging file into tableName and
// deletes the file on success, matching ASGraph.cpp's
// save_stubs_to_db/save_non_stubs_to_db pattern.
func (a *SqliteAdapter) CopyResults(stagingFile, tableName string) error {
	f, err := os.Open(stagingFile)
	if err != nil {
		return fmt.Errorf("[CopyResults]: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("[CopyResults]: %w", err)
	}
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		placeholders := ""
		args := make([]interface{}, len(record))
		for i, v := range record {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args[i] = v
		}
		stmt := "INSERT INTO " + tableName + " VALUES (" + placeholders + ")"
		if _, err := tx.Exec(stmt, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("[CopyResults]: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("[CopyResults]: %w", err)
	}
	return os.Remove(stagingFile)
}

func (a *SqliteAdapter) SelectPolicyAssignments(table string) (<-chan adapter.PolicyAssignment, error) {
	rows, err := a.db.Query("SELECT asn, as_type, impliment FROM " + table)
	if err != nil {
		return nil, fmt.Errorf("[SelectPolicyAssignments]: %w", err)
	}
	ch := make(chan adapter.PolicyAssignment, 256)
	go func() {
		defer rows.Close()
		defer close(ch)
		for rows.Next() {
			var asn uint32
			var asType string
			var impliment bool
			if err := rows.Scan(&asn, &asType, &impliment); err != nil {
				log.Print("[SelectPolicyAssignments]: ", err)
				continue
			}
			ch <- adapter.PolicyAssignment{ASN: asn, ASType: asType, Impliment: impliment}
		}
	}()
	return ch, nil
}

func (a *SqliteAdapter) SelectSimulationPairs(table string) (<-chan adapter.SimulationPair, error) {
	rows, err := a.db.Query("SELECT host, netmask, as_path, origin FROM " + table)
	if err != nil {
		return nil, fmt.Errorf("[SelectSimulationPairs]: %w", err)
	}
	ch := make(chan adapter.SimulationPair, 256)
	go func() {
		defer rows.Close()
		defer close(ch)
		for rows.Next() {
			var host, netmask, origin uint32
			var asPathWire string
			if err := rows.Scan(&host, &netmask, &asPathWire, &origin); err != nil {
				log.Print("[SelectSimulationPairs]: ", err)
				continue
			}
			path, malformed := rib.ParseASPath(asPathWire)
			for _, tok := range malformed {
				log.Print("[SelectSimulationPairs]: malformed AS_PATH token: ", tok)
			}
			ch <- adapter.SimulationPair{
				Prefix: prefix.Prefix{Addr: host, Netmask: netmask},
				ASPath: path,
				Origin: origin,
			}
		}
	}()
	return ch, nil
}
