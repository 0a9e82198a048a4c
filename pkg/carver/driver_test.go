package carver_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensickit/carvescan/pkg/carver"
)

// fillerByte produces a deterministic, varied, non-zero, non-0xFF byte
// stream so background noise never coincidentally forms a JPEG marker or
// header run.
func fillerByte(i int) byte {
	return byte(1 + (i*173+i*i*37)%254)
}

func fillBackground(buf []byte) {
	for i := range buf {
		buf[i] = fillerByte(i)
	}
}

// buildJPEGCandidate returns a well-formed JPEG blob: SOI, a DQT marker,
// innerLen bytes of non-zero filler, and a trailing EOI.
func buildJPEGCandidate(innerLen int) []byte {
	out := []byte{0xFF, 0xD8, 0xFF, 0xDB}
	for i := 0; i < innerLen; i++ {
		out = append(out, fillerByte(i))
	}

	return append(out, 0xFF, 0xD9)
}

func writeTempSource(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing temp source: %v", err)
	}

	return path
}

func jpegOnlyRegistry(t *testing.T, maxSize int) (*carver.Registry, *carver.Matcher) {
	t.Helper()

	reg, err := carver.NewRegistry([]carver.Signature{
		{Name: "JPEG", Header: []byte{0xFF, 0xD8, 0xFF}, MaxSize: maxSize},
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	return reg, carver.NewMatcher(reg)
}

type fakeSink struct {
	records []carver.Record
	metrics carver.Metrics
	flushed bool
}

func (s *fakeSink) AddEntry(r carver.Record) error {
	s.records = append(s.records, r)
	return nil
}

func (s *fakeSink) SetScanMetrics(m carver.Metrics) error {
	s.metrics = m
	return nil
}

func (s *fakeSink) Flush() error {
	s.flushed = true
	return nil
}

func (s *fakeSink) offsets() map[int64]int {
	out := make(map[int64]int)
	for _, r := range s.records {
		out[r.AbsoluteOffset]++
	}

	return out
}

type fakeBlobWriter struct {
	written map[string][]byte
}

func newFakeBlobWriter() *fakeBlobWriter {
	return &fakeBlobWriter{written: make(map[string][]byte)}
}

func (w *fakeBlobWriter) WriteBlob(logicalName, _ string, data []byte) (string, error) {
	cp := append([]byte(nil), data...)
	w.written[logicalName] = cp

	return "fake/" + logicalName, nil
}

var _ carver.InventorySink = (*fakeSink)(nil)
var _ carver.BlobWriter = (*fakeBlobWriter)(nil)

// TestDriver_TwoJPEGsAtDistinctOffsets is end-to-end scenario 1 of spec.md
// §8: two well-formed JPEGs in a 3 MiB image, both must be found at their
// exact offsets.
func TestDriver_TwoJPEGsAtDistinctOffsets(t *testing.T) {
	t.Parallel()

	const size = 3 * 1024 * 1024
	const offset1 = 131072
	const offset2 = 2097473

	buf := make([]byte, size)
	fillBackground(buf)

	candidate := buildJPEGCandidate(250)
	copy(buf[offset1:], candidate)
	copy(buf[offset2:], candidate)

	path := writeTempSource(t, buf)

	source, err := carver.OpenSource(path, carver.DefaultBlockSize)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer source.Close()

	reg, matcher := jpegOnlyRegistry(t, len(candidate))
	profile := carver.Profile{Name: "balanced", MaxSizeFactor: 1, ValidateEntropy: true, ValidateStruct: true}
	sink := &fakeSink{}

	driver := carver.NewDriver(source, reg, matcher, profile, sink, nil, nil, carver.DefaultBlockSize)
	if err := driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	offsets := sink.offsets()
	if offsets[offset1] == 0 {
		t.Errorf("missing detection at offset %#x", offset1)
	}

	if offsets[offset2] == 0 {
		t.Errorf("missing detection at offset %#x", offset2)
	}
}

// TestDriver_HeaderStraddlingBlockBoundary is end-to-end scenario 2: the
// header's first byte lands on the last byte of block 0. The overlap
// window must still catch it, reported exactly once.
func TestDriver_HeaderStraddlingBlockBoundary(t *testing.T) {
	t.Parallel()

	const size = 2 * 1024 * 1024
	const blockSize = 1 * 1024 * 1024
	const offset = blockSize - 1

	buf := make([]byte, size)
	fillBackground(buf)

	candidate := buildJPEGCandidate(120)
	copy(buf[offset:], candidate)

	path := writeTempSource(t, buf)

	source, err := carver.OpenSource(path, blockSize)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer source.Close()

	reg, matcher := jpegOnlyRegistry(t, len(candidate))
	profile := carver.Profile{Name: "balanced", MaxSizeFactor: 1, ValidateEntropy: true, ValidateStruct: true}
	sink := &fakeSink{}

	driver := carver.NewDriver(source, reg, matcher, profile, sink, nil, nil, blockSize)
	if err := driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := sink.offsets()[offset]; got != 1 {
		t.Fatalf("detections at offset %#x = %d, want exactly 1", offset, got)
	}
}

// TestDriver_InvalidJPEGZeroedTailRejected is end-to-end scenario 3: a
// header with no marker and a zeroed tail must be rejected by the strict
// structural validator, producing zero valid detections.
func TestDriver_InvalidJPEGZeroedTailRejected(t *testing.T) {
	t.Parallel()

	const size = 4096
	const offset = 1024
	const candidateLen = 64

	buf := make([]byte, size)
	fillBackground(buf)

	candidate := []byte{0xFF, 0xD8, 0xFF}
	for i := 0; i < candidateLen-5; i++ {
		candidate = append(candidate, fillerByte(i))
	}

	candidate = append(candidate, 0x00, 0x00)
	copy(buf[offset:], candidate)

	path := writeTempSource(t, buf)

	source, err := carver.OpenSource(path, carver.DefaultBlockSize)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer source.Close()

	reg, matcher := jpegOnlyRegistry(t, len(candidate))
	profile := carver.Profile{Name: "balanced", MaxSizeFactor: 1, ValidateEntropy: true, ValidateStruct: true}
	sink := &fakeSink{}

	driver := carver.NewDriver(source, reg, matcher, profile, sink, nil, nil, carver.DefaultBlockSize)
	if err := driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.records) != 0 {
		t.Fatalf("records=%d, want 0 for a headerless-marker zeroed-tail JPEG", len(sink.records))
	}
}

// TestDriver_RepairTruncatedJPEG is end-to-end scenario 4: a truncated
// JPEG with no EOI, scanned under a profile that permits repair, must be
// recovered with repaired=true and a recovered blob ending in EOI.
func TestDriver_RepairTruncatedJPEG(t *testing.T) {
	t.Parallel()

	const offset = 9000
	const noiseLen = 1200

	candidate := []byte{0xFF, 0xD8, 0xFF}
	for i := 0; i < noiseLen; i++ {
		candidate = append(candidate, fillerByte(i))
	}

	size := offset + len(candidate)

	buf := make([]byte, size)
	fillBackground(buf)
	copy(buf[offset:], candidate)

	path := writeTempSource(t, buf)

	source, err := carver.OpenSource(path, carver.DefaultBlockSize)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer source.Close()

	reg, matcher := jpegOnlyRegistry(t, len(candidate))
	profile := carver.Profile{Name: "deep", MaxSizeFactor: 1, ValidateEntropy: true, ValidateStruct: true, AllowRepair: true}
	sink := &fakeSink{}
	blobs := newFakeBlobWriter()

	driver := carver.NewDriver(source, reg, matcher, profile, sink, nil, blobs, carver.DefaultBlockSize)
	if err := driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("records=%d, want exactly 1", len(sink.records))
	}

	record := sink.records[0]
	if !record.Repaired {
		t.Fatal("record.Repaired = false, want true")
	}

	recovered, ok := blobs.written[record.LogicalName]
	if !ok {
		t.Fatalf("no recovered blob written for %s", record.LogicalName)
	}

	if !bytes.HasSuffix(recovered, []byte{0xFF, 0xD9}) {
		t.Fatalf("recovered blob does not end in EOI: %x", recovered[len(recovered)-8:])
	}
}

// TestDriver_TightBlockSizeOverlapDedup is end-to-end scenario 5: a header
// sitting exactly at B-1 in a tightly blocked scan must produce exactly
// one record, never a duplicate from the overlap region.
func TestDriver_TightBlockSizeOverlapDedup(t *testing.T) {
	t.Parallel()

	const size = 20 * 1024
	const blockSize = 4 * 1024
	const offset = blockSize - 1

	buf := make([]byte, size)
	fillBackground(buf)

	candidate := buildJPEGCandidate(50)
	copy(buf[offset:], candidate)

	path := writeTempSource(t, buf)

	source, err := carver.OpenSource(path, blockSize)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer source.Close()

	reg, matcher := jpegOnlyRegistry(t, len(candidate))
	profile := carver.Profile{Name: "balanced", MaxSizeFactor: 1, ValidateEntropy: true, ValidateStruct: true}
	sink := &fakeSink{}

	driver := carver.NewDriver(source, reg, matcher, profile, sink, nil, nil, blockSize)
	if err := driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := sink.offsets()[offset]; got != 1 {
		t.Fatalf("detections at offset %#x = %d, want exactly 1 (no overlap duplicate)", offset, got)
	}

	if len(sink.records) != 1 {
		t.Fatalf("total records=%d, want exactly 1", len(sink.records))
	}
}

// TestDriver_EmptySourceReturnsOpenError is end-to-end scenario 6: an
// empty source must fail to open rather than produce an empty scan.
func TestDriver_EmptySourceReturnsOpenError(t *testing.T) {
	t.Parallel()

	path := writeTempSource(t, nil)

	_, err := carver.OpenSource(path, carver.DefaultBlockSize)
	if !errors.Is(err, carver.ErrOpen) {
		t.Fatalf("err=%v, want ErrOpen", err)
	}
}
