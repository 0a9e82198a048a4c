package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/forensickit/carvescan/pkg/carver"
	"github.com/forensickit/carvescan/pkg/fs"
)

// BlobWriter materializes recovered blobs under
// <report-dir>/recovered/<logical_name>.<ext>, per spec.md §6. It writes
// through fs.AtomicWriter so a crash mid-write never leaves a
// partially-written blob at the final path.
type BlobWriter struct {
	dir    string
	writer *fs.AtomicWriter
}

// NewBlobWriter creates the recovered/ directory under reportDir and
// returns a writer backed by fsys.
func NewBlobWriter(fsys fs.FS, reportDir string) (*BlobWriter, error) {
	dir := filepath.Join(reportDir, "recovered")

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", carver.ErrSink, dir, err)
	}

	return &BlobWriter{dir: dir, writer: fs.NewAtomicWriter(fsys)}, nil
}

// WriteBlob implements carver.BlobWriter.
func (b *BlobWriter) WriteBlob(logicalName, typeName string, data []byte) (string, error) {
	path := filepath.Join(b.dir, fmt.Sprintf("%s.%s", logicalName, extensionFor(typeName)))

	opts := fs.AtomicWriteOptions{SyncDir: true, Perm: 0o644}

	if err := b.writer.Write(path, bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("%w: writing blob %s: %w", carver.ErrSink, path, err)
	}

	return path, nil
}

var _ carver.BlobWriter = (*BlobWriter)(nil)
