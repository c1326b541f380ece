package snapshot

import (
	"bytes"
	"testing"

	"github.com/jstime-go/jstime/internal/builtins"
)

// TestProduce_IsDeterministic exercises spec.md's testable property 4:
// given identical built-in JS and identical binding registration, snapshots
// produced from identical inputs must be byte-equal.
func TestProduce_IsDeterministic(t *testing.T) {
	random := builtins.NewBufferedRandom()

	first, err := Produce(random)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	second, err := Produce(random)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected two snapshots built from identical inputs to be byte-equal")
	}
}

func TestProduce_ReturnsNonEmptyBlob(t *testing.T) {
	blob, err := Produce(builtins.NewBufferedRandom())
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(blob) == 0 {
		t.Error("expected a non-empty snapshot blob")
	}
}
