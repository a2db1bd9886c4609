package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/value"
)

func TestAvgFilterMean(t *testing.T) {
	f := &avgFilter{}
	out, err := f.Process([]value.Value{value.NewDouble(1.0), value.NewDouble(2.0), value.NewDouble(3.0)})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.Double(), 1e-9)
}

func TestFirstFilterEmitsFirstSample(t *testing.T) {
	out, err := firstFilter{}.Process([]value.Value{value.NewInt32(5), value.NewInt32(9)})
	require.NoError(t, err)
	assert.Equal(t, int32(5), out.Int32())
}

func TestAvgFilterRejectsNonNumeric(t *testing.T) {
	f := &avgFilter{}
	_, err := f.Process([]value.Value{value.NewString("x")})
	assert.Error(t, err)
}

func TestLookupUnknownFilter(t *testing.T) {
	_, err := Lookup("median")
	assert.Error(t, err)
}

func TestDefaultForRules(t *testing.T) {
	assert.Equal(t, "first", DefaultFor(value.KindString, true))
	assert.Equal(t, "avg", DefaultFor(value.KindDouble, true))
	assert.Equal(t, "first", DefaultFor(value.KindDouble, false))
}
