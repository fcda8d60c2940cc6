/* ============================================================= *\
   emit.go

   End-of-block result emission: every AS's Loc-RIB is streamed as a
   row, sharded across T worker threads by ASN index modulo T so each
   thread can write its own staging file independently.
\* ============================================================= */

package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	pool "github.com/Emeline-1/pool"

	"github.com/anaximander-labs/bgpextrap/internal/adapter"
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/prefix"
	"github.com/anaximander-labs/bgpextrap/internal/rib"
)

// EmitOptions controls one block's result-emission pass.
type EmitOptions struct {
	StagingDir      string
	ResultsTable    string
	DeprefTable     string // empty disables depref emission
	Iteration       int
	Shards          int
	WithASPath      bool   // emit the bracketed AS_PATH alongside the flat fields
	VerificationASN uint32 // 0 disables single-AS verification mode
}

// EmitResults streams every AS's Loc-RIB (and, if configured, depref
// RIB) into per-shard CSV staging files and bulk-ingests each through
// the adapter, which also removes the staging file on success. Shards
// run concurrently via the worker pool, one staging file per shard to
// avoid write contention.
func EmitResults(g *asgraph.Graph, a adapter.Adapter, opts EmitOptions) error {
	shards := opts.Shards
	if shards <= 0 {
		shards = 1
	}

	asns := make([]uint32, 0, len(g.ASes))
	if opts.VerificationASN != 0 {
		if _, ok := g.Get(opts.VerificationASN); ok {
			asns = append(asns, opts.VerificationASN)
		}
	} else {
		for asn := range g.ASes {
			asns = append(asns, asn)
		}
	}

	shardIDs := make([]int, shards)
	for i := range shardIDs {
		shardIDs[i] = i
	}

	var firstErr error
	worker := func(shard int) {
		if err := emitShard(g, a, asns, shard, shards, opts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	pool.Launch_pool(shards, shardIDs, worker)
	return firstErr
}

func emitShard(g *asgraph.Graph, a adapter.Adapter, asns []uint32, shard, shards int, opts EmitOptions) error {
	resultsFile := fmt.Sprintf("%s/%d_%d.csv", opts.StagingDir, opts.Iteration, shard)
	if err := writeShardCSV(g, asns, shard, shards, opts, resultsFile, false); err != nil {
		return err
	}
	if err := a.CopyResults(resultsFile, opts.ResultsTable); err != nil {
		return err
	}

	if opts.DeprefTable == "" {
		return nil
	}
	deprefFile := fmt.Sprintf("%s/depref%d_%d.csv", opts.StagingDir, opts.Iteration, shard)
	if err := writeShardCSV(g, asns, shard, shards, opts, deprefFile, true); err != nil {
		return err
	}
	return a.CopyResults(deprefFile, opts.DeprefTable)
}

func writeShardCSV(g *asgraph.Graph, asns []uint32, shard, shards int, opts EmitOptions, path string, depref bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[writeShardCSV]: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for i, asn := range asns {
		if i%shards != shard {
			continue
		}
		as, ok := g.Get(asn)
		if !ok {
			continue
		}
		ribMap := as.LocRIB
		if depref {
			if as.DeprefRIB == nil {
				continue
			}
			ribMap = as.DeprefRIB
		}
		var writeErr error
		ribMap.Range(func(_ prefix.Prefix, ann *rib.Announcement) {
			row := []string{
				strconv.FormatUint(uint64(as.ASN), 10),
				ann.Prefix.String(),
				strconv.FormatUint(uint64(ann.Origin), 10),
			}
			if opts.WithASPath {
				row = append(row, rib.FormatASPath(ann.ASPath))
			}
			row = append(row, strconv.FormatInt(ann.Tstamp, 10))
			if err := w.Write(row); err != nil {
				writeErr = err
			}
		})
		if writeErr != nil {
			return writeErr
		}
	}
	w.Flush()
	return w.Error()
}
