package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/forensickit/carvescan/pkg/carver"
)

// CSVSink accumulates records and writes forensic_report.csv atomically on
// Flush, using the header spec.md §6 requires:
// name,type,size_bytes,size_kb,offset,hash.
type CSVSink struct {
	path string

	mu      sync.Mutex
	records []carver.Record
}

// NewCSVSink writes to filepath.Join(reportDir, "forensic_report.csv").
func NewCSVSink(reportDir string) *CSVSink {
	return &CSVSink{path: filepath.Join(reportDir, "forensic_report.csv")}
}

func (s *CSVSink) AddEntry(r carver.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)

	return nil
}

func (s *CSVSink) SetScanMetrics(carver.Metrics) error { return nil }

func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"name", "type", "size_bytes", "size_kb", "offset", "hash"}); err != nil {
		return fmt.Errorf("%w: write csv header: %w", carver.ErrSink, err)
	}

	for _, r := range s.records {
		sizeKB := float64(r.SizeBytes) / 1024.0

		row := []string{
			r.LogicalName,
			r.TypeName,
			strconv.FormatInt(r.SizeBytes, 10),
			strconv.FormatFloat(sizeKB, 'f', 2, 64),
			hexOffset(r.AbsoluteOffset),
			r.SHA256Hex,
		}

		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: write csv row for %s: %w", carver.ErrSink, r.LogicalName, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush csv: %w", carver.ErrSink, err)
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("%w: write %s: %w", carver.ErrSink, s.path, err)
	}

	return nil
}

var _ carver.InventorySink = (*CSVSink)(nil)
