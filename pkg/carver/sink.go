package carver

// InventorySink receives recovered records and final metrics from a scan.
// The driver never writes a report itself; internal/report provides the
// JSON/CSV/HTML implementations, kept out of this package so pkg/carver has
// no file-format or filesystem-layout opinions. See spec.md §4.H.
type InventorySink interface {
	// AddEntry is called once per accepted Record, in the order the driver
	// produced them.
	AddEntry(Record) error

	// SetScanMetrics is called exactly once, after the scan completes.
	SetScanMetrics(Metrics) error

	// Flush finalizes any buffered output. The driver calls it exactly
	// once, after the last AddEntry and the single SetScanMetrics call.
	Flush() error
}
