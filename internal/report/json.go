package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/forensickit/carvescan/pkg/carver"
)

// jsonRecord is the wire shape of one entry under `files` in
// forensic_report.json — spec.md §6: offsets serialized as lowercase
// 0x-prefixed hex.
type jsonRecord struct {
	LogicalName   string `json:"logical_name"`
	TypeName      string `json:"type_name"`
	SizeBytes     int64  `json:"size_bytes"`
	Offset        string `json:"offset"`
	SHA256Hex     string `json:"sha256_hex"`
	Repaired      bool   `json:"repaired"`
	RecoveredPath string `json:"recovered_path,omitempty"`
}

type jsonMetrics struct {
	BytesScanned      int64   `json:"bytes_scanned"`
	BlocksScanned     int64   `json:"blocks_scanned"`
	RawMatches        int64   `json:"raw_matches"`
	ValidMatches      int64   `json:"valid_matches"`
	DuplicateMatches  int64   `json:"duplicate_matches"`
	RejectedEntropy   int64   `json:"rejected_entropy"`
	RejectedStructure int64   `json:"rejected_structure"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

type jsonTotals struct {
	Files  int            `json:"files"`
	ByType map[string]int `json:"by_type"`
}

// jsonSource carries the supplemental device-metadata snapshot described
// in SPEC_FULL.md §12 (grounded on the original prototype's
// get_device_metadata). Omitted entirely when the path is empty, i.e. no
// carver.Source was ever opened against this case.
type jsonSource struct {
	AbsolutePath string `json:"absolute_path"`
	SizeBytes    int64  `json:"size_bytes"`
	ModTime      string `json:"mod_time"`
	InodeID      uint64 `json:"inode_id,omitempty"`
	DeviceID     uint64 `json:"device_id,omitempty"`
}

type jsonIntegrity struct {
	HashesTotal      int `json:"hashes_total"`
	HashesUnique     int `json:"hashes_unique"`
	HashesDuplicates int `json:"hashes_duplicates"`
}

type jsonDocument struct {
	CaseID       string        `json:"case_id"`
	Investigator string        `json:"investigator"`
	StartTime    string        `json:"start_time"`
	Source       *jsonSource   `json:"source,omitempty"`
	ScanMetrics  jsonMetrics   `json:"scan_metrics"`
	Totals       jsonTotals    `json:"totals"`
	Integrity    jsonIntegrity `json:"integrity"`
	Files        []jsonRecord  `json:"files"`
}

// JSONSink accumulates records and metrics in memory and writes
// forensic_report.json atomically on Flush.
type JSONSink struct {
	caseInfo Case
	path     string

	mu      sync.Mutex
	records []carver.Record
	metrics carver.Metrics
}

// NewJSONSink writes to filepath.Join(reportDir, "forensic_report.json").
func NewJSONSink(reportDir string, c Case) *JSONSink {
	return &JSONSink{caseInfo: c, path: filepath.Join(reportDir, "forensic_report.json")}
}

func (s *JSONSink) AddEntry(r carver.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)

	return nil
}

func (s *JSONSink) SetScanMetrics(m carver.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = m

	return nil
}

func (s *JSONSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, byType := totals(s.records)
	total, unique, dup := integrity(s.records)

	doc := jsonDocument{
		CaseID:       s.caseInfo.ID,
		Investigator: s.caseInfo.Investigator,
		StartTime:    s.caseInfo.StartTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ScanMetrics: jsonMetrics{
			BytesScanned:      s.metrics.BytesScanned,
			BlocksScanned:     s.metrics.BlocksScanned,
			RawMatches:        s.metrics.RawMatches,
			ValidMatches:      s.metrics.ValidMatches,
			DuplicateMatches:  s.metrics.DuplicateMatches,
			RejectedEntropy:   s.metrics.RejectedEntropy,
			RejectedStructure: s.metrics.RejectedStructure,
			ElapsedSeconds:    s.metrics.ElapsedSeconds,
		},
		Totals:    jsonTotals{Files: files, ByType: byType},
		Integrity: jsonIntegrity{HashesTotal: total, HashesUnique: unique, HashesDuplicates: dup},
	}

	if s.caseInfo.Source.AbsolutePath != "" {
		doc.Source = &jsonSource{
			AbsolutePath: s.caseInfo.Source.AbsolutePath,
			SizeBytes:    s.caseInfo.Source.SizeBytes,
			ModTime:      s.caseInfo.Source.ModTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
			InodeID:      s.caseInfo.Source.InodeID,
			DeviceID:     s.caseInfo.Source.DeviceID,
		}
	}

	doc.Files = make([]jsonRecord, 0, len(s.records))
	for _, r := range s.records {
		doc.Files = append(doc.Files, jsonRecord{
			LogicalName:   r.LogicalName,
			TypeName:      r.TypeName,
			SizeBytes:     r.SizeBytes,
			Offset:        hexOffset(r.AbsoluteOffset),
			SHA256Hex:     r.SHA256Hex,
			Repaired:      r.Repaired,
			RecoveredPath: r.RecoveredPath,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal json report: %w", carver.ErrSink, err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %w", carver.ErrSink, s.path, err)
	}

	return nil
}

var _ carver.InventorySink = (*JSONSink)(nil)
