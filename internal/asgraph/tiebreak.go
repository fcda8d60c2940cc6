/* ============================================================= *\
   tiebreak.go

   Deterministic pseudo-boolean tie-break, seeded fresh from an AS's
   own ASN on every call: the generator is constructed locally with
   that ASN as its seed and draws exactly one value, so every tie at a
   given AS resolves the same way, call after call, run after run.
\* ============================================================= */

package asgraph

// minstd_rand constants (Lehmer / Park-Miller minimal standard).
const (
	lcgA uint64 = 48271
	lcgM uint64 = 2147483647 // 2^31 - 1
)

// tie_break_bool draws one deterministic pseudo-boolean seeded by
// asn, matching std::minstd_rand(asn)() % 2 == 0.
func tie_break_bool(asn uint32) bool {
	seed := uint64(asn) % lcgM
	if seed == 0 {
		seed = 1 // minstd_rand requires a nonzero seed
	}
	next := (lcgA * seed) % lcgM
	return next%2 == 0
}

// TieBreak exposes the per-ASN tie-break draw to other packages
// (seeding, export synthesis) that need the same deterministic
// coin flip outside of intake.go's own call sites.
func TieBreak(asn uint32) bool {
	return tie_break_bool(asn)
}
