/* ============================================================= *\
   community.go

   End-of-round community detection: gather every AS's suspect
   reports filed during propagation, reduce them to a blacklist, and
   install that blacklist on every EZBGPsec AS running the
   community-detection variant before the next block starts.
\* ============================================================= */

package engine

import (
	"github.com/anaximander-labs/bgpextrap/internal/asgraph"
	"github.com/anaximander-labs/bgpextrap/internal/community"
)

// RunCommunityDetection drains SuspectReports from every AS, feeds
// them into detector, and installs the resulting blacklist on every
// AS running the community-detection EZBGPsec variant. A no-op if no
// AS filed a report this round.
func RunCommunityDetection(g *asgraph.Graph, detector *community.Detector) {
	detector.Clear()

	any := false
	for _, as := range g.ASes {
		for _, edge := range as.SuspectReports {
			detector.AddReport(edge)
			any = true
		}
		as.SuspectReports = nil
	}
	if !any {
		return
	}

	blacklist := detector.Process()
	for _, as := range g.ASes {
		if as.Policy == asgraph.PolicyEZCommunityDetection {
			as.Blacklist = blacklist
		}
	}
}
