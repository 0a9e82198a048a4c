package report

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"

	"github.com/forensickit/carvescan/pkg/carver"
)

// HTMLSink accumulates records and writes a self-contained
// forensic_report.html on Flush. Every untrusted field (case id,
// investigator, logical names, type names, hashes, offsets) goes through
// html/template, which HTML-escapes by construction — spec.md §6.
//
// Unlike the original reporter this was distilled from, there is no
// Chart.js CDN reference: the per-type file-count distribution is rendered
// as a plain HTML table, keeping the report readable with no network access.
type HTMLSink struct {
	caseInfo Case
	path     string

	mu      sync.Mutex
	records []carver.Record
	metrics carver.Metrics
}

// NewHTMLSink writes to filepath.Join(reportDir, "forensic_report.html").
func NewHTMLSink(reportDir string, c Case) *HTMLSink {
	return &HTMLSink{caseInfo: c, path: filepath.Join(reportDir, "forensic_report.html")}
}

func (s *HTMLSink) AddEntry(r carver.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)

	return nil
}

func (s *HTMLSink) SetScanMetrics(m carver.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = m

	return nil
}

type htmlRow struct {
	LogicalName string
	TypeName    string
	Size        string
	Offset      string
	SHA256Hex   string
	Repaired    bool
}

type htmlTypeCount struct {
	TypeName string
	Count    int
}

type htmlData struct {
	CaseID       string
	Investigator string
	StartTime    string
	Metrics      carver.Metrics
	Rows         []htmlRow
	ByType       []htmlTypeCount
}

var htmlReportTemplate = template.Must(template.New("forensic_report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Forensic Report {{.CaseID}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #ccc; padding: 0.35rem 0.6rem; text-align: left; font-size: 0.9rem; }
th { background: #f0f0f0; }
.repaired { color: #a15c00; }
</style>
</head>
<body>
<h1>Forensic Report</h1>
<p>Case: {{.CaseID}}<br>Investigator: {{.Investigator}}<br>Started: {{.StartTime}}</p>

<h2>Scan Metrics</h2>
<table>
<tr><th>Bytes scanned</th><td>{{.Metrics.BytesScanned}}</td></tr>
<tr><th>Blocks scanned</th><td>{{.Metrics.BlocksScanned}}</td></tr>
<tr><th>Raw matches</th><td>{{.Metrics.RawMatches}}</td></tr>
<tr><th>Valid matches</th><td>{{.Metrics.ValidMatches}}</td></tr>
<tr><th>Duplicate matches</th><td>{{.Metrics.DuplicateMatches}}</td></tr>
<tr><th>Rejected (entropy)</th><td>{{.Metrics.RejectedEntropy}}</td></tr>
<tr><th>Rejected (structure)</th><td>{{.Metrics.RejectedStructure}}</td></tr>
<tr><th>Elapsed seconds</th><td>{{.Metrics.ElapsedSeconds}}</td></tr>
</table>

<h2>Recovered Files by Type</h2>
<table>
<tr><th>Type</th><th>Count</th></tr>
{{range .ByType}}<tr><td>{{.TypeName}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>

<h2>Inventory</h2>
<table>
<tr><th>Name</th><th>Type</th><th>Size</th><th>Offset</th><th>SHA-256</th><th>Repaired</th></tr>
{{range .Rows}}<tr>
<td>{{.LogicalName}}</td>
<td>{{.TypeName}}</td>
<td>{{.Size}}</td>
<td>{{.Offset}}</td>
<td>{{.SHA256Hex}}</td>
<td{{if .Repaired}} class="repaired"{{end}}>{{.Repaired}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

func (s *HTMLSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, byType := totals(s.records)

	typeNames := make([]string, 0, len(byType))
	for name := range byType {
		typeNames = append(typeNames, name)
	}

	sort.Strings(typeNames)

	data := htmlData{
		CaseID:       s.caseInfo.ID,
		Investigator: s.caseInfo.Investigator,
		StartTime:    s.caseInfo.StartTime.UTC().Format(time.RFC3339),
		Metrics:      s.metrics,
	}

	for _, name := range typeNames {
		data.ByType = append(data.ByType, htmlTypeCount{TypeName: name, Count: byType[name]})
	}

	data.Rows = make([]htmlRow, 0, len(s.records))
	for _, r := range s.records {
		data.Rows = append(data.Rows, htmlRow{
			LogicalName: r.LogicalName,
			TypeName:    r.TypeName,
			Size:        humanize.Bytes(uint64(r.SizeBytes)), //nolint:gosec // size is always non-negative
			Offset:      hexOffset(r.AbsoluteOffset),
			SHA256Hex:   r.SHA256Hex,
			Repaired:    r.Repaired,
		})
	}

	var buf bytes.Buffer

	if err := htmlReportTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: render html report: %w", carver.ErrSink, err)
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("%w: write %s: %w", carver.ErrSink, s.path, err)
	}

	return nil
}

var _ carver.InventorySink = (*HTMLSink)(nil)
