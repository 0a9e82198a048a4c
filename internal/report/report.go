// Package report implements the three Inventory Sink formats described in
// spec.md §6: a machine-readable JSON case file, a flat CSV summary, and a
// self-contained HTML document. None of this is part of the scanning core
// (spec.md §1 lists report serializers as "external collaborators"); these
// sinks only ever see what a carver.InventorySink is allowed to see.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forensickit/carvescan/pkg/carver"
)

// Case identifies the scan a report belongs to, carried in the JSON
// output's header fields. Source is optional device-metadata, filled in
// by the caller once the source has been opened — see
// carver.SourceMetadata.
type Case struct {
	ID           string
	Investigator string
	StartTime    time.Time
	Source       carver.SourceMetadata
}

// NewCase generates a fresh case ID via google/uuid and stamps StartTime.
func NewCase(investigator string, startTime time.Time) Case {
	return Case{
		ID:           uuid.NewString(),
		Investigator: investigator,
		StartTime:    startTime,
	}
}

// MultiSink fans out every call to all of its members, in order, stopping
// at the first error. It exists because spec.md §6 asks for JSON, CSV, and
// HTML to be produced from the same scan — the driver only ever talks to
// one carver.InventorySink.
type MultiSink struct {
	mu      sync.Mutex
	members []carver.InventorySink
}

// NewMultiSink fans out to members.
func NewMultiSink(members ...carver.InventorySink) *MultiSink {
	return &MultiSink{members: members}
}

func (m *MultiSink) AddEntry(r carver.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.members {
		if err := s.AddEntry(r); err != nil {
			return err
		}
	}

	return nil
}

func (m *MultiSink) SetScanMetrics(metrics carver.Metrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.members {
		if err := s.SetScanMetrics(metrics); err != nil {
			return err
		}
	}

	return nil
}

func (m *MultiSink) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.members {
		if err := s.Flush(); err != nil {
			return err
		}
	}

	return nil
}

var _ carver.InventorySink = (*MultiSink)(nil)

// totals summarizes the accepted records for the JSON report's `totals`
// section and the HTML report's per-type table.
func totals(records []carver.Record) (files int, byType map[string]int) {
	byType = make(map[string]int)

	for _, r := range records {
		byType[r.TypeName]++
	}

	return len(records), byType
}

// integrity counts hashes for the JSON report's `integrity` section.
func integrity(records []carver.Record) (total, unique, duplicates int) {
	seen := make(map[string]int, len(records))

	for _, r := range records {
		seen[r.SHA256Hex]++
	}

	for _, n := range seen {
		if n > 1 {
			duplicates += n - 1
		}
	}

	return len(records), len(seen), duplicates
}

func extensionFor(typeName string) string {
	switch typeName {
	case "JPEG":
		return "jpg"
	case "PNG":
		return "png"
	case "MP4":
		return "mp4"
	case "ZIP":
		return "zip"
	case "DOCX":
		return "docx"
	default:
		return "bin"
	}
}

func hexOffset(offset int64) string {
	return fmt.Sprintf("0x%x", offset)
}
