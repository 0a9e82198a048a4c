// Package observer provides a logrus-backed carver.Observer, keeping the
// driver itself free of any logging dependency per spec.md §9.
package observer

import (
	"github.com/sirupsen/logrus"

	"github.com/forensickit/carvescan/pkg/carver"
)

// Logrus logs one line per block and one line per accepted record.
type Logrus struct {
	log *logrus.Entry
}

// New returns a Logrus observer writing through log.
func New(log *logrus.Entry) *Logrus {
	return &Logrus{log: log}
}

func (o *Logrus) OnBlockScanned(m carver.Metrics) {
	o.log.WithFields(logrus.Fields{
		"blocks_scanned": m.BlocksScanned,
		"bytes_scanned":  m.BytesScanned,
		"valid_matches":  m.ValidMatches,
		"elapsed_s":      m.ElapsedSeconds,
	}).Debug("block scanned")
}

func (o *Logrus) OnRecord(r carver.Record) {
	o.log.WithFields(logrus.Fields{
		"logical_name": r.LogicalName,
		"type":         r.TypeName,
		"offset":       r.AbsoluteOffset,
		"size":         r.SizeBytes,
		"repaired":     r.Repaired,
	}).Info("recovered file")
}

var _ carver.Observer = (*Logrus)(nil)
