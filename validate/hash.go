// Package validate implements the existence/size/checksum validator
// pipeline that decides whether an on-disk artifact still matches its
// descriptor entry.
package validate

import (
	"encoding/hex"
	"hash"
	"io"

	"crypto/sha256"

	"lukechampine.com/blake3"
)

// Algorithm selects the digest function used across an installation. The
// signer and the launcher must agree on one; it is not per-artifact.
type Algorithm string

const (
	// SHA256 is the default digest function.
	SHA256 Algorithm = "sha256"
	// BLAKE3 is an opt-in digest function, selected via config.
	BLAKE3 Algorithm = "blake3"
)

// newHasher returns a fresh hash.Hash for the algorithm. Unknown algorithms
// fall back to SHA256, matching the "sha256 by default" rule in spec.
func newHasher(alg Algorithm) hash.Hash {
	if alg == BLAKE3 {
		return blake3.New(32, nil)
	}
	return sha256.New()
}

// hashBytes returns the lowercase hex digest of data under alg.
func hashBytes(alg Algorithm, data []byte) string {
	h := newHasher(alg)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// hashReader returns the lowercase hex digest of everything read from r.
func hashReader(alg Algorithm, r io.Reader) (string, error) {
	h := newHasher(alg)
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hexSum returns the lowercase hex encoding of h's current sum.
func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}
