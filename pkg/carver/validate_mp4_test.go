package carver

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func mp4Box(typ string, payload []byte) []byte {
	var buf bytes.Buffer

	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(8+len(payload))) //nolint:gosec // test data, always small
	buf.Write(size)
	buf.WriteString(typ)
	buf.Write(payload)

	return buf.Bytes()
}

func mp4Sample() []byte {
	var buf bytes.Buffer

	buf.Write(mp4Box("ftyp", append([]byte("isom"), make([]byte, 8)...)))
	buf.Write(mp4Box("moov", make([]byte, 16)))
	buf.Write(mp4Box("mdat", make([]byte, 32)))

	return buf.Bytes()
}

func TestValidateMP4_StrictAcceptsCleanWalk(t *testing.T) {
	t.Parallel()

	if !validateMP4(mp4Sample(), false) {
		t.Fatal("strict mode rejected a clean ftyp/moov/mdat walk")
	}
}

func TestValidateMP4_RejectsMissingFtyp(t *testing.T) {
	t.Parallel()

	data := mp4Box("moov", make([]byte, 16))

	if validateMP4(data, true) {
		t.Fatal("tolerant mode accepted a stream not starting with ftyp")
	}
}

func TestValidateMP4_RejectsAllZeroBrand(t *testing.T) {
	t.Parallel()

	data := mp4Box("ftyp", make([]byte, 12))

	if validateMP4(data, false) {
		t.Fatal("strict mode accepted an all-zero major brand")
	}

	if validateMP4(data, true) {
		t.Fatal("tolerant mode accepted an all-zero major brand")
	}
}

func TestValidateMP4_StrictRejectsNestedFtyp(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	buf.Write(mp4Box("ftyp", append([]byte("isom"), make([]byte, 8)...)))
	buf.Write(mp4Box("ftyp", append([]byte("isom"), make([]byte, 8)...)))

	if validateMP4(buf.Bytes(), false) {
		t.Fatal("strict mode accepted a nested ftyp box")
	}

	if !validateMP4(buf.Bytes(), true) {
		t.Fatal("tolerant mode rejected a valid leading ftyp box just because of a later nested one")
	}
}

func TestValidateMP4_StrictRejectsTruncatedBoxHeader(t *testing.T) {
	t.Parallel()

	data := mp4Sample()
	data = append(data, 0x00, 0x00, 0x00) // dangling partial box header

	if validateMP4(data, false) {
		t.Fatal("strict mode accepted a stream with a truncated trailing box header")
	}
}

func TestValidateMP4_SizeZeroMeansToEndOfStream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	buf.Write(mp4Box("ftyp", append([]byte("isom"), make([]byte, 8)...)))

	size := []byte{0, 0, 0, 0}
	buf.Write(size)
	buf.WriteString("mdat")
	buf.Write(make([]byte, 64))

	if !validateMP4(buf.Bytes(), false) {
		t.Fatal("strict mode rejected a trailing size==0 box extending to end of stream")
	}
}
