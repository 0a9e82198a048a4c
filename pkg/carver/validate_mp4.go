package carver

import "encoding/binary"

// mp4Box is one parsed ISO-BMFF box header, shared by the validator and the
// trimmer so both walk boxes the same way.
type mp4Box struct {
	typ       string
	start     int64
	headerLen int64
	end       int64 // absolute end of the box (start + size)
}

// mp4WalkBoxes walks the box stream starting at offset 0. truncated is true
// iff the walk stopped early: a box header (or its 64-bit extended size)
// did not fit in blob, or a box's declared size was too small to advance
// or ran past the end of blob. finalOffset is where the walk stopped: equal to
// len(blob) iff every box was fully consumed with no overrun.
func mp4WalkBoxes(blob []byte) (boxes []mp4Box, truncated bool, finalOffset int64) {
	off := int64(0)
	total := int64(len(blob))

	for off < total {
		if off+8 > total {
			return boxes, true, off
		}

		size32 := binary.BigEndian.Uint32(blob[off : off+4])
		typ := string(blob[off+4 : off+8])

		headerLen := int64(8)

		var end int64

		switch size32 {
		case 1:
			if off+16 > total {
				return boxes, true, off
			}

			size64 := binary.BigEndian.Uint64(blob[off+8 : off+16])
			headerLen = 16
			end = off + int64(size64) //nolint:gosec // forensic input, bounds-checked below
		case 0:
			end = total
		default:
			end = off + int64(size32)
		}

		if end <= off || end > total {
			return boxes, true, off
		}

		boxes = append(boxes, mp4Box{typ: typ, start: off, headerLen: headerLen, end: end})
		off = end
	}

	return boxes, false, off
}

func mp4MajorBrandAllZero(blob []byte, box mp4Box) bool {
	start := box.start + box.headerLen
	if start+4 > int64(len(blob)) {
		return true
	}

	brand := blob[start : start+4]

	return brand[0] == 0 && brand[1] == 0 && brand[2] == 0 && brand[3] == 0
}

// validateMP4 implements spec.md §4.D's ISO-BMFF/MP4 rule: the first box
// must be a valid ftyp with a non-zero major brand; strict mode further
// requires the walk to reach EOF cleanly with no overrun and no nested
// ftyp box.
func validateMP4(blob []byte, tolerant bool) bool {
	boxes, truncated, finalOffset := mp4WalkBoxes(blob)
	if len(boxes) == 0 {
		return false
	}

	first := boxes[0]
	if first.typ != "ftyp" {
		return false
	}

	if mp4MajorBrandAllZero(blob, first) {
		return false
	}

	if tolerant {
		return true
	}

	if truncated || finalOffset != int64(len(blob)) {
		return false
	}

	for _, b := range boxes[1:] {
		if b.typ == "ftyp" {
			return false
		}
	}

	return true
}
