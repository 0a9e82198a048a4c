package carver

// Observer receives progress callbacks from a running Driver. Per spec.md
// §9's design note, the driver never logs directly; it always goes through
// an Observer handle, and the default is a no-op. internal/observer wires
// a logrus-backed implementation for the CLI.
type Observer interface {
	// OnBlockScanned is called once per iteration of the scan loop, after
	// metrics for that block have been folded in.
	OnBlockScanned(Metrics)

	// OnRecord is called once per accepted Record, in discovery order.
	OnRecord(Record)
}

// NoopObserver discards every callback. It is the Driver's default.
type NoopObserver struct{}

func (NoopObserver) OnBlockScanned(Metrics) {}
func (NoopObserver) OnRecord(Record)        {}

var _ Observer = NoopObserver{}
