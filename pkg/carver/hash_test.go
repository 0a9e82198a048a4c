package carver_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/forensickit/carvescan/pkg/carver"
)

func TestForensicHash_MatchesStdlibForSmallInput(t *testing.T) {
	t.Parallel()

	data := []byte("hello, forensic world")

	got, err := carver.ForensicHash(data)
	if err != nil {
		t.Fatalf("ForensicHash: %v", err)
	}

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])

	if got != want {
		t.Fatalf("hash=%s, want %s", got, want)
	}
}

func TestForensicHash_MatchesStdlibAcrossChunkBoundary(t *testing.T) {
	t.Parallel()

	data := make([]byte, (1<<20)+17)
	for i := range data {
		data[i] = byte(i)
	}

	got, err := carver.ForensicHash(data)
	if err != nil {
		t.Fatalf("ForensicHash: %v", err)
	}

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])

	if got != want {
		t.Fatalf("hash=%s, want %s", got, want)
	}

	if len(got) != 64 {
		t.Fatalf("hash length=%d, want 64", len(got))
	}
}
