package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateGuidNeverZero(t *testing.T) {
	for i := 0; i < 1000; i++ {
		g := GenerateGuid("node0", int64(i))
		assert.NotZero(t, g)
	}
}

func TestGenerateGuidUniquePerCall(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		g := GenerateGuid("node0", 42)
		assert.False(t, seen[g], "guid repeated across calls with the same salt and timestamp")
		seen[g] = true
	}
}
