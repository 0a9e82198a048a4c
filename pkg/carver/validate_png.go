package carver

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const pngChunkOverhead = 12 // length:4 + type:4 + crc:4

// validatePNG walks the PNG chunk stream described in spec.md §4.D. Strict
// mode requires every chunk CRC to match and the walk to terminate exactly
// at IEND, consuming all bytes; tolerant mode stops at the first IEND seen
// and does not check CRCs, since a truncated/corrupted tail is exactly what
// the repairer is meant to recover from.
func validatePNG(blob []byte, tolerant bool) bool {
	if !bytes.HasPrefix(blob, pngSignature) {
		return false
	}

	pos := len(pngSignature)

	for pos+pngChunkOverhead <= len(blob) {
		length := binary.BigEndian.Uint32(blob[pos : pos+4])
		typ := blob[pos+4 : pos+8]
		dataStart := pos + 8
		dataEnd := dataStart + int(length)

		if dataEnd < 0 || dataEnd+4 > len(blob) {
			return false // truncated chunk
		}

		storedCRC := binary.BigEndian.Uint32(blob[dataEnd : dataEnd+4])

		if !tolerant {
			computed := crc32.ChecksumIEEE(blob[pos+4 : dataEnd])
			if computed != storedCRC {
				return false
			}
		}

		if string(typ) == "IEND" {
			if tolerant {
				return true
			}

			return dataEnd+4 == len(blob)
		}

		pos = dataEnd + 4
	}

	return false
}
