package collision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReserveFirstUseReturnsBaseName(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, "app_mp", tr.Reserve("app_mp"))
}

func TestReserveDisambiguatesRepeats(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, "app_mp", tr.Reserve("app_mp"))
	assert.Equal(t, "app_mp_1", tr.Reserve("app_mp"))
	assert.Equal(t, "app_mp_2", tr.Reserve("app_mp"))
}

func TestReserveIsPerBase(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, "a", tr.Reserve("a"))
	assert.Equal(t, "b", tr.Reserve("b"))
	assert.Equal(t, "a_1", tr.Reserve("a"))
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Reserve("app_mp")
	tr.Reset()
	assert.Equal(t, "app_mp", tr.Reserve("app_mp"))
}
