package carver

import "errors"

// Sentinel errors for the kinds listed in spec.md §7. ValidationFailure is
// deliberately absent: it is recorded as a Metrics counter, never returned.
var (
	// ErrOpen covers a source that cannot be opened, cannot be stat'ed, or
	// is empty. A source that refuses mapping is not an error: Source falls
	// back to pread. Fatal: the driver aborts before scanning starts.
	ErrOpen = errors.New("carver: open error")

	// ErrBounds indicates an invalid offset/length passed to a Window.
	// Treated as a programmer error.
	ErrBounds = errors.New("carver: bounds error")

	// ErrMatcherBuild indicates a malformed signature table (e.g. a
	// non-bytes or empty header). Fatal before the scan loop starts.
	ErrMatcherBuild = errors.New("carver: matcher build error")

	// ErrHash is returned for unexpected hashing failures (a failed write
	// into the SHA-256 state).
	ErrHash = errors.New("carver: hash error")

	// ErrSink wraps a failure from the Inventory Sink's AddEntry,
	// SetScanMetrics or Flush, or from the BlobWriter.
	// Surfaced to the caller; the driver stops scanning but any already
	// flushed partial report remains on disk.
	ErrSink = errors.New("carver: sink error")
)
