package carver_test

import (
	"testing"

	"github.com/forensickit/carvescan/pkg/carver"
)

func TestShannonEntropy_Empty(t *testing.T) {
	t.Parallel()

	if got := carver.ShannonEntropy(nil); got != 0.0 {
		t.Fatalf("entropy=%v, want 0.0", got)
	}
}

func TestShannonEntropy_Zeroes(t *testing.T) {
	t.Parallel()

	data := make([]byte, 4096)

	if got := carver.ShannonEntropy(data); got != 0.0 {
		t.Fatalf("entropy of all-zero buffer=%v, want 0.0", got)
	}
}

func TestShannonEntropy_UniformByteDistribution(t *testing.T) {
	t.Parallel()

	data := make([]byte, 256*16)
	for i := range data {
		data[i] = byte(i % 256)
	}

	got := carver.ShannonEntropy(data)
	if got < 7.99 || got > 8.0 {
		t.Fatalf("entropy of uniform distribution=%v, want ~8.0", got)
	}
}

func TestCheckEntropy_RejectsZeroBuffer(t *testing.T) {
	t.Parallel()

	data := make([]byte, 4096)

	if carver.CheckEntropy(data, carver.DefaultEntropyThreshold) {
		t.Fatal("CheckEntropy accepted a 4096-byte zero buffer")
	}
}

func TestCheckEntropy_AcceptsUniformRandomBuffer(t *testing.T) {
	t.Parallel()

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte((i*2654435761 + 17) >> 3) //nolint:gosec // deterministic, well-mixed test filler
	}

	if !carver.CheckEntropy(data, carver.DefaultEntropyThreshold) {
		t.Fatal("CheckEntropy rejected a well-mixed 4096-byte buffer")
	}
}
