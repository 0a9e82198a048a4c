package carver

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
)

func buildPNGChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data))) //nolint:gosec // test data, always small
	buf.Write(length)
	buf.WriteString(typ)
	buf.Write(data)

	crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
	crcBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBytes, crc)
	buf.Write(crcBytes)

	return buf.Bytes()
}

func buildPNG(chunks ...[]byte) []byte {
	var buf bytes.Buffer

	buf.Write(pngSignature)

	for _, c := range chunks {
		buf.Write(c)
	}

	return buf.Bytes()
}

func TestValidatePNG_StrictAcceptsWellFormed(t *testing.T) {
	t.Parallel()

	png := buildPNG(
		buildPNGChunk("IHDR", make([]byte, 13)),
		buildPNGChunk("IEND", nil),
	)

	if !validatePNG(png, false) {
		t.Fatal("strict mode rejected a well-formed PNG")
	}
}

func TestValidatePNG_StrictRejectsBadCRC(t *testing.T) {
	t.Parallel()

	png := buildPNG(buildPNGChunk("IHDR", make([]byte, 13)), buildPNGChunk("IEND", nil))
	png[len(png)-1] ^= 0xFF // corrupt IEND's CRC

	if validatePNG(png, false) {
		t.Fatal("strict mode accepted a PNG with a corrupted CRC")
	}
}

func TestValidatePNG_StrictRejectsTrailingGarbage(t *testing.T) {
	t.Parallel()

	png := buildPNG(buildPNGChunk("IHDR", make([]byte, 13)), buildPNGChunk("IEND", nil))
	png = append(png, 0xDE, 0xAD, 0xBE, 0xEF)

	if validatePNG(png, false) {
		t.Fatal("strict mode accepted bytes after IEND")
	}
}

func TestValidatePNG_TolerantStopsAtFirstIEND(t *testing.T) {
	t.Parallel()

	png := buildPNG(buildPNGChunk("IHDR", make([]byte, 13)), buildPNGChunk("IEND", nil))
	png = append(png, 0xDE, 0xAD, 0xBE, 0xEF)

	if !validatePNG(png, true) {
		t.Fatal("tolerant mode rejected a PNG with trailing garbage after IEND")
	}
}

func TestValidatePNG_RejectsMissingSignature(t *testing.T) {
	t.Parallel()

	if validatePNG([]byte{0x00, 0x01, 0x02}, true) {
		t.Fatal("accepted a blob without the PNG signature")
	}
}
