package carver

import "encoding/binary"

var (
	zipEOCDSig  = []byte{0x50, 0x4B, 0x05, 0x06}
	zipCDSig    = []byte{0x50, 0x4B, 0x01, 0x02}
	zipLocalSig = []byte{0x50, 0x4B, 0x03, 0x04}
)

const (
	zipEOCDFixedSize  = 22
	zipCDFixedSize    = 46
	zipMaxCommentSize = 65535
	zip64Sentinel16   = 0xFFFF
	zip64Sentinel32   = 0xFFFFFFFF
)

// zipFindEOCD searches for the end-of-central-directory record, scanning
// backward over the trailing comment window per spec.md §4.D (the record
// must be within the last 65 557 bytes).
func zipFindEOCD(blob []byte) (offset int, ok bool) {
	if len(blob) < zipEOCDFixedSize {
		return 0, false
	}

	windowStart := len(blob) - zipEOCDFixedSize - zipMaxCommentSize
	if windowStart < 0 {
		windowStart = 0
	}

	for i := len(blob) - zipEOCDFixedSize; i >= windowStart; i-- {
		if bytesEqual(blob[i:i+4], zipEOCDSig) {
			return i, true
		}
	}

	return 0, false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// validateZIP implements the ZIP/DOCX rule in spec.md §4.D: locate the
// EOCD, verify its declared fields are internally consistent, then in
// strict mode walk the central directory it points to and confirm the
// walked-entry count matches total_entries, with every entry's relative
// local-header offset landing on a local file header.
//
// ZIP64 archives mark total_entries/cd_size/cd_offset with the sentinel
// values 0xFFFF/0xFFFFFFFF and carry the real values in a separate Zip64
// EOCD locator/record preceding this one. Whether tolerant mode should
// accept such a record is left unspecified upstream; this implementation
// accepts it on EOCD-signature presence alone, identically to tolerant
// mode, rather than mis-parsing 32-bit fields that no longer hold the true
// counts or rejecting an otherwise-valid ZIP64 archive outright.
func validateZIP(blob []byte, tolerant bool) bool {
	eocdOffset, ok := zipFindEOCD(blob)
	if !ok {
		return false
	}

	if tolerant {
		return true
	}

	record := blob[eocdOffset:]
	if len(record) < zipEOCDFixedSize {
		return false
	}

	diskNo := binary.LittleEndian.Uint16(record[4:6])
	cdStartDisk := binary.LittleEndian.Uint16(record[6:8])
	entriesDisk := binary.LittleEndian.Uint16(record[8:10])
	totalEntries := binary.LittleEndian.Uint16(record[10:12])
	cdSize := binary.LittleEndian.Uint32(record[12:16])
	cdOffset := binary.LittleEndian.Uint32(record[16:20])
	commentLen := binary.LittleEndian.Uint16(record[20:22])

	if totalEntries == zip64Sentinel16 || cdSize == zip64Sentinel32 || cdOffset == zip64Sentinel32 {
		return true
	}

	if eocdOffset+zipEOCDFixedSize+int(commentLen) > len(blob) {
		return false
	}

	if diskNo != 0 || cdStartDisk != 0 || entriesDisk != totalEntries {
		return false
	}

	if int(cdOffset)+int(cdSize) > eocdOffset {
		return false
	}

	pos := int(cdOffset)
	count := 0

	for pos < eocdOffset {
		if pos+zipCDFixedSize > eocdOffset || !bytesEqual(blob[pos:pos+4], zipCDSig) {
			return false
		}

		nameLen := int(binary.LittleEndian.Uint16(blob[pos+28 : pos+30]))
		extraLen := int(binary.LittleEndian.Uint16(blob[pos+30 : pos+32]))
		fileCommentLen := int(binary.LittleEndian.Uint16(blob[pos+32 : pos+34]))
		localHeaderOffset := binary.LittleEndian.Uint32(blob[pos+42 : pos+46])

		if int(localHeaderOffset)+4 > len(blob) || !bytesEqual(blob[localHeaderOffset:localHeaderOffset+4], zipLocalSig) {
			return false
		}

		entrySize := zipCDFixedSize + nameLen + extraLen + fileCommentLen
		if pos+entrySize > eocdOffset {
			return false
		}

		pos += entrySize
		count++
	}

	return pos == eocdOffset && count == int(totalEntries)
}
