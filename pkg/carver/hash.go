package carver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// hashStreamThreshold is the size above which ForensicHash reads the blob
// in chunks instead of hashing it in one call, per spec.md §4.F.
const hashStreamThreshold = 1 << 20 // 1 MiB

const hashChunkSize = 1 << 20

// ForensicHash returns the lowercase hex SHA-256 digest of data. Blobs at
// or below hashStreamThreshold are hashed directly; larger blobs are fed to
// the hasher in fixed-size chunks so peak memory stays bounded regardless
// of how ForensicHash is eventually wired to streaming sources.
func ForensicHash(data []byte) (string, error) {
	h := sha256.New()

	if len(data) <= hashStreamThreshold {
		if _, err := h.Write(data); err != nil {
			return "", fmt.Errorf("%w: %w", ErrHash, err)
		}

		return hex.EncodeToString(h.Sum(nil)), nil
	}

	for off := 0; off < len(data); off += hashChunkSize {
		end := off + hashChunkSize
		if end > len(data) {
			end = len(data)
		}

		if _, err := h.Write(data[off:end]); err != nil {
			return "", fmt.Errorf("%w: %w", ErrHash, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
