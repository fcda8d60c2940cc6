/* ============================================================= *\
   loop.go

   AS_PATH loop detection ahead of seeding: an ASN repeated anywhere
   in the path other than immediate prepending is treated as a
   malformed announcement and dropped rather than seeded.
\* ============================================================= */

package engine

// FindLoop reports whether path contains a repeated ASN that is not
// simply consecutive prepending of the same hop.
func FindLoop(path []uint32) bool {
	prev := uint32(0)
	for i := 0; i < len(path)-1; i++ {
		prev = path[i]
		for j := i + 1; j < len(path); j++ {
			if path[i] == path[j] && path[j] != prev {
				return true
			}
			prev = path[j]
		}
	}
	return false
}
