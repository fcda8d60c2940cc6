/* ==================================================================================== *\
    args.go

    Program arguments handling
\* ==================================================================================== */

package main

import (
	"flag"
	"os"
)

// stringList accumulates repeated occurrences of a flag into a slice,
// the flag.Value idiom for a repeatable CLI option.
type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	out := ""
	for i, v := range *s {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// runArgs holds every flag the driver understands.
type runArgs struct {
	rovpp      bool
	ezbgpsec   int
	random     bool
	invert     bool
	storeDepref bool

	iterationSize uint

	resultsTable        string
	deprefTable         string
	inverseResultsTable string
	announcementsTable  string
	simulationTable     string
	policyTables        stringList

	propTwice bool

	configSection string
	excludeAsn    int
	mhMode        int

	logFolder     string
	severityLevel int

	dbFile     string
	stagingDir string
}

// handleArgs parses the driver's CLI surface. Missing required
// positional state (none here — everything is a flag) uses a single
// flag.NewFlagSet per entry point.
func handleArgs(args []string) runArgs {
	if len(args) == 0 {
		println("Missing arguments")
		os.Exit(-1)
	}
	var a runArgs
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)

	cmd.BoolVar(&a.rovpp, "rovpp", false, "Run ASes tagged ROV++ under the ROV++ overlay instead of plain BGP")
	cmd.IntVar(&a.ezbgpsec, "ezbgpsec", 0, "EZBGPsec round count; any nonzero value enables the EZBGPsec overlays (0 disables). The count itself does not set how many rounds run")
	cmd.BoolVar(&a.random, "random", true, "Seed full AS_PATHs (true) rather than origin-only (false)")
	cmd.BoolVar(&a.invert, "invert-results", false, "Track, per (prefix, origin), which ASes did NOT receive it")
	cmd.BoolVar(&a.storeDepref, "store-depref", false, "Store the second-best (depref) announcement per prefix")

	var iterationSize uint
	cmd.UintVar(&iterationSize, "iteration-size", 1000, "Approximate announcement rows per block")

	cmd.StringVar(&a.resultsTable, "results-table", "results", "Destination table for Loc-RIB rows")
	cmd.StringVar(&a.deprefTable, "depref-table", "", "Destination table for depref rows (empty disables)")
	cmd.StringVar(&a.inverseResultsTable, "inverse-results-table", "", "Destination table name for inverse-result rows (accepted; inverse-result rows are not emitted)")
	cmd.StringVar(&a.announcementsTable, "announcements-table", "mrt_announcements", "Source table of monitor announcements")
	cmd.StringVar(&a.simulationTable, "simulation-table", "", "Source table of (prefix, origin) simulation pairs")
	cmd.Var(&a.policyTables, "policy-tables", "Source table of policy assignments (repeatable)")

	cmd.BoolVar(&a.propTwice, "prop-twice", false, "Run the up/down propagation pair twice per block")

	cmd.StringVar(&a.configSection, "config-section", "", "Named section of the adapter config (accepted; the sqlite adapter reads no config section)")
	cmd.IntVar(&a.excludeAsn, "exclude-asn", 0, "ASN to exclude from the graph entirely (0 disables)")
	cmd.IntVar(&a.mhMode, "mh-propagation-mode", 0, "Multihomed-customer export mode (0/1/2)")

	cmd.StringVar(&a.logFolder, "log-folder", "", "Directory for log output (stderr if empty)")
	cmd.IntVar(&a.severityLevel, "severity-level", 2, "Log severity level (0..5): 0 discards all log output, any higher value emits every message")

	cmd.StringVar(&a.dbFile, "db", "", "sqlite3 database file")
	cmd.StringVar(&a.stagingDir, "staging-dir", "/dev/shm/bgpextrap", "Staging directory for CSV bulk-load files")

	cmd.Parse(args[1:])
	a.iterationSize = iterationSize
	return a
}
