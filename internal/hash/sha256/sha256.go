// Package sha256 derives stable article IDs from SHA-256 digests.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces hex SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// HashParts hashes the parts joined by a NUL separator, so ("ab","c") and
// ("a","bc") never collide.
func (h *Hasher) HashParts(parts ...string) (string, error) {
	d := sha256.New()
	for i, p := range parts {
		if i > 0 {
			d.Write([]byte{0})
		}
		d.Write([]byte(p))
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
