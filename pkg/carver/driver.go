package carver

import (
	"context"
	"fmt"
	"time"
)

// DefaultBlockSize is the iteration block size B used when the caller does
// not override it. spec.md §4.G.
const DefaultBlockSize int64 = 1 << 20 // 1 MiB

// mp4SignatureName identifies the MP4 signature registered with header
// bytes "ftyp". The matcher reports the offset of the "ftyp" text itself,
// which sits 4 bytes into the enclosing box (size:u32-BE | "ftyp"). The
// trimmer and validator both expect a blob starting at the box header, so
// the driver samples 4 bytes earlier for this type only — spec.md §4.E's
// "return from ftyp-4".
const mp4SignatureName = "MP4"
const mp4BoxHeaderBack = 4

type dedupKey struct {
	offset   int64
	typeName string
}

// BlobWriter materializes a recovered blob to persistent storage and
// returns the path recorded in Record.RecoveredPath. spec.md §6: "when the
// sink chooses to materialize recovered blobs". Since InventorySink never
// sees raw bytes (only the fields in Record), that choice is expressed
// here instead — the Driver writes the blob, the Sink only ever records
// the resulting path.
type BlobWriter interface {
	WriteBlob(logicalName, typeName string, data []byte) (path string, err error)
}

// Driver is the scan orchestrator described in spec.md §4.G: it drives a
// Window through fixed-size blocks with inter-block overlap, feeds each
// block to a Matcher, and gates, trims, hashes, and records every hit.
type Driver struct {
	window   Window
	registry *Registry
	matcher  *Matcher
	profile  Profile
	sink     InventorySink
	observer Observer
	blobs    BlobWriter // nil disables blob materialization

	blockSize int64
	overlap   int64

	metrics Metrics
	dedup   map[dedupKey]struct{}
}

// NewDriver wires a Driver around an already-open Window. blockSize <= 0
// falls back to DefaultBlockSize. A nil observer is replaced with
// NoopObserver. A nil blobs disables blob materialization; records are
// still emitted, just with an empty RecoveredPath.
func NewDriver(window Window, registry *Registry, matcher *Matcher, profile Profile, sink InventorySink, observer Observer, blobs BlobWriter, blockSize int64) *Driver {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	if observer == nil {
		observer = NoopObserver{}
	}

	overlap := int64(registry.MaxHeaderSize() - 1)
	if overlap < 0 {
		overlap = 0
	}

	return &Driver{
		window:    window,
		registry:  registry,
		matcher:   matcher,
		profile:   profile,
		sink:      sink,
		observer:  observer,
		blobs:     blobs,
		blockSize: blockSize,
		overlap:   overlap,
		dedup:     make(map[dedupKey]struct{}),
	}
}

// Run executes the scan loop to completion, appending every accepted
// Record to the sink and finally flushing it. ctx is checked once between
// blocks — never mid-block, per spec.md §5 — so cancellation still leaves
// a valid partial inventory.
func (d *Driver) Run(ctx context.Context) error {
	start := time.Now()
	size := d.window.Size()

	d.metrics = Metrics{}
	d.dedup = make(map[dedupKey]struct{})

	for offset := int64(0); offset < size; {
		if err := ctx.Err(); err != nil {
			return err
		}

		blockLength := min64(d.blockSize, size-offset)
		scanLength := min64(blockLength+d.overlap, size-offset)

		window, err := d.window.GetSegment(offset, scanLength)
		if err != nil {
			return fmt.Errorf("%w: reading block at %d: %w", ErrBounds, offset, err)
		}

		if err := d.scanBlock(offset, blockLength, window); err != nil {
			return err
		}

		d.metrics.BlocksScanned++
		d.metrics.BytesScanned += blockLength
		d.metrics.ElapsedSeconds = time.Since(start).Seconds()
		d.observer.OnBlockScanned(d.metrics)

		offset += d.blockSize
	}

	d.metrics.ElapsedSeconds = time.Since(start).Seconds()

	if err := d.sink.SetScanMetrics(d.metrics); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}

	if err := d.sink.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrSink, err)
	}

	return nil
}

func (d *Driver) scanBlock(offset, blockLength int64, window []byte) error {
	for _, m := range d.matcher.FindAll(window) {
		absOffset := offset + int64(m.OffsetWithinBlock)

		// Boundary rule: a hit belonging to the overlap tail is left for
		// the next iteration, whose window will start exactly there.
		if absOffset >= offset+blockLength {
			continue
		}

		if err := d.acceptMatch(absOffset, m); err != nil {
			return err
		}
	}

	return nil
}

func (d *Driver) acceptMatch(absOffset int64, m RawMatch) error {
	key := dedupKey{offset: absOffset, typeName: m.TypeName}
	if _, dup := d.dedup[key]; dup {
		d.metrics.DuplicateMatches++

		return nil
	}

	d.dedup[key] = struct{}{}
	d.metrics.RawMatches++

	sampleOffset := absOffset
	if m.TypeName == mp4SignatureName && absOffset >= mp4BoxHeaderBack {
		sampleOffset = absOffset - mp4BoxHeaderBack
	}

	size := d.window.Size()

	remaining := size - sampleOffset
	if remaining <= 0 {
		d.metrics.RejectedStructure++

		return nil
	}

	sampleLen := min64(int64(m.Signature.MaxSize), remaining)

	blob, err := d.window.GetSegment(sampleOffset, sampleLen)
	if err != nil {
		return fmt.Errorf("%w: sampling candidate at %d: %w", ErrBounds, sampleOffset, err)
	}

	if d.profile.ValidateEntropy && !CheckEntropy(blob, DefaultEntropyThreshold) {
		d.metrics.RejectedEntropy++

		return nil
	}

	if d.profile.ValidateStruct && !ValidateStructure(blob, m.TypeName, d.profile.AllowRepair) {
		d.metrics.RejectedStructure++

		return nil
	}

	trimmed, repaired := Repair(m.TypeName, blob)
	if trimmed == nil {
		d.metrics.RejectedStructure++

		return nil
	}

	if repaired && !d.profile.AllowRepair {
		d.metrics.RejectedStructure++

		return nil
	}

	digest, err := ForensicHash(trimmed)
	if err != nil {
		return err
	}

	d.metrics.ValidMatches++

	logicalName := fmt.Sprintf("%s_%04d", m.TypeName, d.metrics.ValidMatches)

	record := Record{
		LogicalName:    logicalName,
		TypeName:       m.TypeName,
		SizeBytes:      int64(len(trimmed)),
		AbsoluteOffset: sampleOffset,
		SHA256Hex:      digest,
		Repaired:       repaired,
	}

	if d.blobs != nil {
		path, err := d.blobs.WriteBlob(logicalName, m.TypeName, trimmed)
		if err != nil {
			return fmt.Errorf("%w: writing recovered blob %s: %w", ErrSink, logicalName, err)
		}

		record.RecoveredPath = path
	}

	if err := d.sink.AddEntry(record); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}

	d.observer.OnRecord(record)

	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}
