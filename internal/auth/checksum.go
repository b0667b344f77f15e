package auth

import "strconv"

// IntegrityHash returns a short base36 digest of s.
//
// The digest detects corruption of a token payload. It is not keyed and anyone
// can compute it, so it offers no protection against a forger.
func IntegrityHash(s string) string {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return strconv.FormatUint(uint64(h), 36)
}
