// Package fingerprint derives the deterministic content digests that get
// anchored on-chain. Same parts in the same order always produce the same
// digest, so a stored reference can be recomputed and checked later.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const delimiter = "|"

// Digest returns the lowercase hex sha256 of the parts joined with a stable
// delimiter.
func Digest(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, delimiter)))
	return hex.EncodeToString(h[:])
}

// TxRef formats a digest as a 0x-prefixed transaction reference.
func TxRef(parts ...string) string {
	return "0x" + Digest(parts...)
}
