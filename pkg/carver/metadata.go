package carver

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// SourceMetadata is a snapshot of the scanned source's filesystem identity,
// captured once at open time. The original prototype this was distilled
// from recorded this alongside every report (`get_device_metadata`);
// spec.md's own scope is silent on it, so it is carried as a supplemental,
// informative field only — nothing in §4 or §8 depends on it.
type SourceMetadata struct {
	AbsolutePath string
	SizeBytes    int64
	ModTime      time.Time
	InodeID      uint64
	DeviceID     uint64
}

// sourceMetadata builds a SourceMetadata for path from an already-opened
// os.FileInfo. Inode/device IDs are Unix-specific (syscall.Stat_t); they
// are left at zero when the platform's Sys() doesn't expose them rather
// than failing the scan over a cosmetic field.
func sourceMetadata(path string, info os.FileInfo) SourceMetadata {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	meta := SourceMetadata{
		AbsolutePath: abs,
		SizeBytes:    info.Size(),
		ModTime:      info.ModTime(),
	}

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		meta.InodeID = stat.Ino
		meta.DeviceID = uint64(stat.Dev) //nolint:unconvert // Dev is int64 on darwin, uint64 on linux
	}

	return meta
}
