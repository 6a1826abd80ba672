package unit

import (
	"crypto/sha256"

	"veq/internal/source"
)

// Digest is a fixed 256-bit hash, layout-compatible with source.File.Hash.
type Digest [32]byte

// Combine builds an aggregate hash: H( first || rest1 || rest2 ... ).
// Callers must feed parts in a deterministic order.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// schemaDigest pins the manifest schema generation into every unit digest,
// so cache entries from older schema versions never replay.
var schemaDigest = sha256.Sum256([]byte("veq-unit-v1"))

func (b *Builder) computeDigest() Digest {
	parts := make([]Digest, 0, b.files.Len()+1)
	parts = append(parts, b.digestSeed)
	for i := 0; i < b.files.Len(); i++ {
		parts = append(parts, Digest(b.files.Get(source.FileID(paramCount(i))).Hash))
	}
	return Combine(schemaDigest, parts...)
}
