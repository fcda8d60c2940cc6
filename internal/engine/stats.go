/* ============================================================= *\
   stats.go

   Run-level counters surfaced at end-of-run, the same shape as the
   global counters a propagation run accumulates over its lifetime.
\* ============================================================= */

package engine

import "fmt"

// Stats accumulates counters across a run (or a single prefix block,
// when the driver resets them per-block).
type Stats struct {
	BrokenPaths       int
	Loops             int
	MalformedPrefixes int
	BlocksProcessed   int
	AnnouncementsSeen int
	Blackholes        int
}

func (s *Stats) String() string {
	return fmt.Sprintf(
		"blocks=%d anns=%d broken_paths=%d loops=%d malformed_prefixes=%d blackholes=%d",
		s.BlocksProcessed, s.AnnouncementsSeen, s.BrokenPaths, s.Loops, s.MalformedPrefixes, s.Blackholes)
}
