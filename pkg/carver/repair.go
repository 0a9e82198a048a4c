package carver

import (
	"bytes"
	"encoding/binary"
)

// repairer trims (and where the rule allows, synthesizes a terminator for)
// a candidate blob once a raw match has cleared the entropy gate. It
// returns the bytes to keep and whether it had to synthesize anything
// beyond what was already present. See spec.md §4.E. A nil return means
// the blob is not recoverable.
type repairer func(blob []byte) (out []byte, repaired bool)

var repairers = map[string]repairer{
	"JPEG": repairJPEG,
	"PNG":  repairPNG,
	"MP4":  repairMP4,
	"ZIP":  repairZIP,
	"DOCX": repairZIP,
}

// Repair dispatches to the repairer registered for typeName. Unknown types
// pass through unchanged. A nil out means the repairer could not locate a
// recoverable byte range.
func Repair(typeName string, blob []byte) (out []byte, repaired bool) {
	r, ok := repairers[typeName]
	if !ok {
		return blob, false
	}

	return r(blob)
}

// repairJPEG requires the blob to begin with SOI (an SOI later in the blob
// is not searched for), then searches from offset 2 for the first EOI and
// trims through it. Missing EOI: strip trailing zero padding and synthesize
// one (repaired = true).
func repairJPEG(blob []byte) ([]byte, bool) {
	if !bytes.HasPrefix(blob, jpegSOI) {
		return nil, false
	}

	if idx := bytes.Index(blob[2:], jpegEOI); idx != -1 {
		end := 2 + idx + len(jpegEOI)

		return blob[:end], false
	}

	trimmed := bytes.TrimRight(blob, "\x00")
	out := make([]byte, len(trimmed)+len(jpegEOI))
	copy(out, trimmed)
	copy(out[len(trimmed):], jpegEOI)

	return out, true
}

// repairPNG requires the blob to begin with the PNG signature (a signature
// later in the blob is not searched for), then walks to the first IEND
// chunk and trims through IEND's CRC. Missing IEND is not recoverable: synthesizing an
// IEND chunk recovers nothing the caller couldn't already infer, since the
// chunk itself carries no data.
func repairPNG(blob []byte) ([]byte, bool) {
	if !bytes.HasPrefix(blob, pngSignature) {
		return nil, false
	}

	pos := len(pngSignature)

	for pos+pngChunkOverhead <= len(blob) {
		length := binary.BigEndian.Uint32(blob[pos : pos+4])
		typ := blob[pos+4 : pos+8]
		dataEnd := pos + 8 + int(length)

		if dataEnd < 0 || dataEnd+4 > len(blob) {
			break
		}

		if string(typ) == "IEND" {
			return blob[:dataEnd+4], false
		}

		pos = dataEnd + 4
	}

	return nil, false
}

// repairZIP locates a local file header, then the EOCD, and trims through
// EOCD + 22 + comment_len. Missing EOCD is not recoverable: there is no
// terminator to synthesize without reconstructing a central directory from
// scratch, which is out of scope here.
func repairZIP(blob []byte) ([]byte, bool) {
	if !bytes.Contains(blob, zipLocalSig) {
		return nil, false
	}

	eocdOffset, ok := zipFindEOCD(blob)
	if !ok {
		return nil, false
	}

	if len(blob) < eocdOffset+zipEOCDFixedSize {
		return nil, false
	}

	commentLen := binary.LittleEndian.Uint16(blob[eocdOffset+20 : eocdOffset+22])
	end := eocdOffset + zipEOCDFixedSize + int(commentLen)

	if end > len(blob) {
		return nil, false
	}

	return blob[:end], false
}

// repairMP4 requires a leading ftyp box (blob is expected to start at the
// box header, i.e. 4 bytes before the "ftyp" match — see the driver's
// sample-offset adjustment for the MP4 signature) and at least one mdat or
// moov box, then trims through the end of the last box it can parse fully.
//
// Relocating a moov box that was rewritten past a truncation point ("moov
// at end", common for streamed captures) is not implemented: doing so
// correctly requires rewriting internal stco/co64 sample-offset tables,
// not just appending bytes, and this repairer only ever trims.
func repairMP4(blob []byte) ([]byte, bool) {
	boxes, _, finalOffset := mp4WalkBoxes(blob)
	if len(boxes) == 0 || boxes[0].typ != "ftyp" {
		return nil, false
	}

	hasPayload := false

	for _, b := range boxes {
		if b.typ == "mdat" || b.typ == "moov" {
			hasPayload = true

			break
		}
	}

	if !hasPayload {
		return nil, false
	}

	return blob[:finalOffset], false
}
