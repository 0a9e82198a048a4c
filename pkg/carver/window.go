package carver

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Window is a read-only, bounds-checked view over a byte source. It yields
// non-owning byte slices — see spec.md §4.A.
type Window interface {
	// GetSegment returns a view of [offset, min(offset+length, Size())).
	// It never copies when the source is memory-mapped.
	GetSegment(offset, length int64) ([]byte, error)

	// Size returns the total size of the source in bytes.
	Size() int64

	// BlockSize returns the source's informative block-size hint. Per
	// spec.md §9, the driver — not the Window — defines the iteration
	// block size; this value is exposed for observability only.
	BlockSize() int64

	// Close releases all resources. Safe to call exactly once; callers
	// must call it on every exit path, success or failure.
	Close() error
}

// Source opens a path read-only and exposes it as a Window. It maps the
// file with mmap for zero-copy reads and transparently falls back to
// buffered pread (via os.File.ReadAt) when mapping is unavailable — for
// example for certain block devices, or on platforms where mmap of the
// backing file fails.
type Source struct {
	file      *os.File
	mapped    mmap.MMap // nil when running in pread fallback mode
	size      int64
	blockSize int64
	meta      SourceMetadata
}

// OpenSource opens path O_RDONLY and probes its size. blockSize is stored
// only as the BlockSize() hint; it does not affect how GetSegment behaves.
func OpenSource(path string, blockSize int64) (*Source, error) {
	if blockSize <= 0 {
		blockSize = 1
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrOpen, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("%w: stat %s: %w", ErrOpen, path, err)
	}

	size := info.Size()
	if size == 0 {
		_ = file.Close()

		return nil, fmt.Errorf("%w: %s is empty", ErrOpen, path)
	}

	src := &Source{file: file, size: size, blockSize: blockSize, meta: sourceMetadata(path, info)}

	mapped, mmapErr := mmap.MapRegion(file, int(size), mmap.RDONLY, 0, 0)
	if mmapErr == nil {
		src.mapped = mapped
	}
	// Mapping failure is not fatal: GetSegment falls back to pread.
	// This also covers 32-bit builds where int(size) would overflow;
	// MapRegion itself returns an error in that case.

	return src, nil
}

// Size returns the total size of the source in bytes.
func (s *Source) Size() int64 { return s.size }

// BlockSize returns the informative block-size hint.
func (s *Source) BlockSize() int64 { return s.blockSize }

// Metadata returns the filesystem snapshot captured when the source was
// opened. See SourceMetadata.
func (s *Source) Metadata() SourceMetadata { return s.meta }

// GetSegment returns a view of [offset, min(offset+length, Size())).
func (s *Source) GetSegment(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: negative offset=%d length=%d", ErrBounds, offset, length)
	}

	if offset >= s.size {
		return []byte{}, nil
	}

	end := offset + length
	if end > s.size {
		end = s.size
	}

	if s.mapped != nil {
		return s.mapped[offset:end], nil
	}

	buf := make([]byte, end-offset)

	n, err := s.file.ReadAt(buf, offset)
	if err != nil && n < len(buf) {
		return nil, fmt.Errorf("%w: pread at %d: %w", ErrBounds, offset, err)
	}

	return buf[:n], nil
}

// Close unmaps the source (if mapped) and closes the underlying file.
// Safe to call once; releases resources on every exit path of the driver.
func (s *Source) Close() error {
	var err error

	if s.mapped != nil {
		err = s.mapped.Unmap()
		s.mapped = nil
	}

	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}

var _ Window = (*Source)(nil)
