/* ============================================================= *\
   announcement.go

   The BGP route record carried through intake, RIBs, and export
   synthesis. Immutable by convention: callers that need to modify
   an announcement copy it first (see engine/propagate.go).
\* ============================================================= */

package rib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anaximander-labs/bgpextrap/internal/prefix"
)

// Reserved ASN sentinels, observable in results.
const (
	SelfSeedASN       uint32 = 300
	BlackholeASN      uint32 = 64512
	AttackerOriginASN uint32 = 64513
	CleanOriginASN    uint32 = 64514
	PreventiveASN1    uint32 = 64515
	PreventiveASN2    uint32 = 64516
	AttackerSeenASN   uint32 = 64570
)

// Relationship classes used when computing priority.
const (
	RelProvider = 0
	RelPeer     = 1
	RelCustomer = 2
	RelBroken   = -1
)

// Priority base values per relationship class.
const (
	PrioritySelfBase     uint32 = 300
	PriorityCustomerBase uint32 = 200
	PriorityPeerBase     uint32 = 100
	PriorityProviderBase uint32 = 0
)

// EmptyTstamp marks an empty/placeholder RIB slot.
const EmptyTstamp int64 = -1

// Announcement is an immutable route record.
type Announcement struct {
	Prefix          prefix.Prefix
	Origin          uint32
	ReceivedFromASN uint32
	Priority        uint32
	Tstamp          int64
	FromMonitor     bool
	ASPath          []uint32 // origin last
	Withdraw        bool     // ROV++ withdrawal marker
	InferenceLength int      // hop count accumulated through propagation, for diagnostics
	Community       uint32   // non-zero marks a synthesized route for dataplane consumers (e.g. policy.BlackholeCommunity)
}

// HopsFromPriority returns the path-length weight an exported copy of
// an announcement with priority p carries: the low two decimal digits
// of p (which encode 100-hops, clamped to [0,99]) minus one. A weight
// of 0 marks the origin seed (priority 300/400-equivalent) and maps
// to 99 per the export rule.
func HopsFromPriority(p uint32) uint32 {
	weight := p % 100
	if weight == 0 {
		return 99
	}
	return weight - 1
}

// RelationshipBase returns the priority base for a relationship class.
func RelationshipBase(rel int) uint32 {
	switch rel {
	case RelCustomer:
		return PriorityCustomerBase
	case RelPeer:
		return PriorityPeerBase
	case RelProvider:
		return PriorityProviderBase
	default:
		return PriorityProviderBase
	}
}

// ExportClass reports which Gao-Rexford class an announcement's
// priority belongs to: "customer" (>=200, exportable everywhere),
// "peer" ([100,200), customers only) or "provider" (<100, customers
// only).
func (a Announcement) ExportClass() string {
	switch {
	case a.Priority >= 200:
		return "customer"
	case a.Priority >= 100:
		return "peer"
	default:
		return "provider"
	}
}

// FormatASPath renders the stored (origin-last) path in wire format:
// curly-brace bracketed, most-recent first, comma separated, e.g.
// "{65001,65002,65003}".
func FormatASPath(path []uint32) string {
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < len(path); i++ {
		if i != 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(path[i]), 10))
	}
	b.WriteByte('}')
	return b.String()
}

// ParseASPath parses the curly-brace CSV wire format into an
// origin-last slice. Tolerates stray braces; malformed tokens are
// logged by the caller and skipped here.
func ParseASPath(s string) (path []uint32, malformed []string) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	// Wire format is most-recent-first, i.e. already origin-last, so
	// tokens are kept in wire order.
	path = make([]uint32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.Trim(f, "{}")
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			malformed = append(malformed, f)
			continue
		}
		path = append(path, uint32(v))
	}
	return path, malformed
}

func (a Announcement) String() string {
	return fmt.Sprintf("[%s origin=%d priority=%d recv_from=%d monitor=%v]",
		a.Prefix.String(), a.Origin, a.Priority, a.ReceivedFromASN, a.FromMonitor)
}
