package carver

import "bytes"

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// jpegStrictMarkers are SOF/DQT markers whose presence distinguishes a real
// JPEG bitstream from an accidental FF D8 FF run; spec.md §4.D.
var jpegStrictMarkers = [][]byte{
	{0xFF, 0xC0},
	{0xFF, 0xC2},
	{0xFF, 0xDB},
}

func validateJPEG(blob []byte, tolerant bool) bool {
	if !bytes.HasPrefix(blob, jpegSOI) {
		return false
	}

	if tolerant {
		return true
	}

	hasMarker := false

	for _, marker := range jpegStrictMarkers {
		if bytes.Contains(blob, marker) {
			hasMarker = true
			break
		}
	}

	if !hasMarker {
		return false
	}

	trimmed := bytes.TrimRight(blob, "\x00")

	return bytes.HasSuffix(trimmed, jpegEOI)
}
