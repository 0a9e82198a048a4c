// Package carver implements the read-only scanning pipeline described in
// spec.md: a windowed source view, a multi-pattern header matcher, per-type
// structural validation and repair, content-addressed hashing, and the
// driver that ties them together into a chain-of-custody inventory.
package carver

import "fmt"

// Signature describes one recognizable file-type header.
//
// Headers are compared bit-exactly. MaxSize bounds the byte range sampled
// at detection time and must already reflect the active profile's
// max_size_factor (see internal/config).
type Signature struct {
	Name    string
	Header  []byte
	MaxSize int
}

func (s Signature) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty signature name", ErrMatcherBuild)
	}

	if len(s.Header) == 0 {
		return fmt.Errorf("%w: signature %q has empty header", ErrMatcherBuild, s.Name)
	}

	if s.MaxSize <= 0 {
		return fmt.Errorf("%w: signature %q has non-positive max_size", ErrMatcherBuild, s.Name)
	}

	return nil
}

// RawMatch is a header occurrence found by the Matcher, not yet validated.
type RawMatch struct {
	TypeName          string
	OffsetWithinBlock int
	Signature         Signature
}

// Record is one accepted, hashed recovery — the unit appended to an
// Inventory Sink.
type Record struct {
	LogicalName    string
	TypeName       string
	SizeBytes      int64
	AbsoluteOffset int64
	SHA256Hex      string
	Repaired       bool
	RecoveredPath  string // empty unless the Driver's BlobWriter materialized the blob
}

// Metrics are the monotonic counters maintained by the Driver for one scan.
// Reset at the start of every scan; see spec.md §8 invariant 1.
type Metrics struct {
	BytesScanned      int64
	BlocksScanned     int64
	RawMatches        int64
	ValidMatches      int64
	DuplicateMatches  int64
	RejectedEntropy   int64
	RejectedStructure int64
	ElapsedSeconds    float64
}

// Profile tunes how aggressively the driver validates and sizes candidates.
// See spec.md §6: required profiles are fast, balanced, deep.
type Profile struct {
	Name            string
	MaxSizeFactor   float64
	ValidateEntropy bool
	ValidateStruct  bool
	AllowRepair     bool
}
