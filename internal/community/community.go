/* ============================================================= *\
   community.go

   Community detection for the EZBGPsec overlays: ASes along a path
   that fails signature verification report the hyper-edge of ASNs
   they suspect. Reports sharing an AS merge into one component via
   connected-component clustering; within each component, a
   degree-based threshold filter approximates a minimum vertex cover
   to decide which ASNs to blacklist.
\* ============================================================= */

package community

import (
	"strconv"

	graph "github.com/Emeline-1/basic_graph"
)

// HyperEdge is a set of ASNs implicated together by one suspect
// path. Edges sharing an ASN belong to the same component.
type HyperEdge []uint32

// Detector accumulates hyper-edge reports across a propagation round
// and reduces them to a blacklist once processed.
type Detector struct {
	LocalThreshold  int // per-AS degree above which it is blacklisted outright
	GlobalThreshold int // bound on how many ASNs a single round may blacklist

	reports []HyperEdge
	degree  map[uint32]int
	g       *graph.Graph

	blacklist map[uint32]struct{}
}

// NewDetector builds an empty detector with the given thresholds.
func NewDetector(localThreshold, globalThreshold int) *Detector {
	return &Detector{
		LocalThreshold:  localThreshold,
		GlobalThreshold: globalThreshold,
		degree:          make(map[uint32]int),
		blacklist:       make(map[uint32]struct{}),
	}
}

// AddReport records a suspect hyper-edge: every pairwise combination
// of ASNs in edge is wired together as a clique so that a later
// connected-components pass groups all reports touching a shared ASN.
func (d *Detector) AddReport(edge HyperEdge) {
	if len(edge) == 0 {
		return
	}
	d.reports = append(d.reports, edge)
	for _, asn := range edge {
		d.degree[asn]++
	}
	if len(edge) < 2 {
		return
	}
	if d.g == nil {
		d.g = graph.New()
	}
	for i := 0; i < len(edge); i++ {
		for j := i + 1; j < len(edge); j++ {
			d.g.Add_edge(asnKey(edge[i]), asnKey(edge[j]))
		}
	}
}

func asnKey(asn uint32) string {
	return strconv.FormatUint(uint64(asn), 10)
}

func parseAsnKey(key string) (uint32, bool) {
	v, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// Process groups reports into components, applies the local
// threshold within each component, then a bounded global pass across
// the whole round, and returns the resulting blacklist. Safe to call
// once per round; call Clear first to start a fresh round.
func (d *Detector) Process() map[uint32]struct{} {
	if d.g == nil {
		return d.blacklist
	}

	d.g.Set_iterator()
	for d.g.Next_connected_component() {
		component := d.g.Connected_component()
		d.localThresholdFilter(component)
	}

	d.globalThresholdFilter()
	return d.blacklist
}

// localThresholdFilter blacklists every ASN in component whose report
// degree exceeds LocalThreshold, the cheap approximation of the
// per-component minimum vertex cover: a high-degree node covers most
// of its component's hyper-edges on its own.
func (d *Detector) localThresholdFilter(component []string) {
	if d.LocalThreshold <= 0 {
		return
	}
	for _, key := range component {
		asn, ok := parseAsnKey(key)
		if !ok {
			continue
		}
		if d.degree[asn] > d.LocalThreshold {
			d.blacklist[asn] = struct{}{}
		}
	}
}

// globalThresholdFilter repeatedly blacklists the single
// highest-degree ASN not yet blacklisted, decrementing the global
// threshold each time, until the threshold is exhausted or no
// candidate remains above it.
func (d *Detector) globalThresholdFilter() {
	threshold := d.GlobalThreshold
	for threshold > 0 {
		var highestAsn uint32
		highest := 0
		for asn, deg := range d.degree {
			if _, already := d.blacklist[asn]; already {
				continue
			}
			if deg > highest {
				highest = deg
				highestAsn = asn
			}
		}
		if highest <= threshold || highest <= 1 {
			break
		}
		d.blacklist[highestAsn] = struct{}{}
		threshold--
	}
}

// Blacklist returns the current blacklist without reprocessing.
func (d *Detector) Blacklist() map[uint32]struct{} {
	return d.blacklist
}

// Clear resets the detector to an empty round, keeping its
// thresholds.
func (d *Detector) Clear() {
	d.reports = nil
	d.degree = make(map[uint32]int)
	d.g = nil
	d.blacklist = make(map[uint32]struct{})
}
