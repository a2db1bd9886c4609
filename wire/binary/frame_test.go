package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/value"
)

func buildFrame(t *testing.T, seq int32, ts float64, stream int, extra []value.Value) []byte {
	t.Helper()
	m := NewMarshaler()
	defer m.Release()

	m.Begin(stream, 2+len(extra))
	m.AppendSeqTimestamp(seq, ts)
	for _, v := range extra {
		require.NoError(t, m.AppendValue(v))
	}
	out := m.Finish()
	cp := make([]byte, len(out))
	copy(cp, out)

	return cp
}

func TestFrameRoundTrip(t *testing.T) {
	frameBytes := buildFrame(t, 2, 3.0, 1, []value.Value{value.NewInt32(7)})

	assert.Equal(t, byte(0xAA), frameBytes[0])
	assert.Equal(t, byte(0xAA), frameBytes[1])

	var s Scanner
	pf, n, err := s.Scan(frameBytes)
	require.NoError(t, err)
	assert.Equal(t, len(frameBytes), n)
	assert.Equal(t, 1, pf.StreamIndex)
	assert.Equal(t, int32(2), pf.Seq)
	assert.InDelta(t, 3.0, pf.Timestamp, 1e-9)
	require.Len(t, pf.Values, 3)
	assert.Equal(t, int32(7), pf.Values[2].Int32())
}

func TestFrameResyncSkipsGarbage(t *testing.T) {
	good := buildFrame(t, 1, 1.0, 0, nil)
	input := append([]byte{0x42, 0x42}, good...)

	var s Scanner
	_, n, err := s.Scan(input)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "garbage before the sync pair must be discarded")

	pf, n2, err := s.Scan(input[n:])
	require.NoError(t, err)
	assert.Equal(t, len(good), n2)
	assert.Equal(t, int32(1), pf.Seq)
}

func TestFramePromotesToLongKind(t *testing.T) {
	big := make([]byte, 0x10000)
	m := NewMarshaler()
	defer m.Release()

	m.Begin(3, 3)
	m.AppendSeqTimestamp(9, 1.0)
	require.NoError(t, m.AppendValue(value.NewBlob(big)))
	out := m.Finish()

	assert.Equal(t, KindLong, out[2])

	var s Scanner
	pf, n, err := s.Scan(out)
	require.NoError(t, err)
	assert.Equal(t, len(out), n)
	assert.Equal(t, big, pf.Values[2].Blob())
}

func TestScanNeedsMoreData(t *testing.T) {
	good := buildFrame(t, 1, 1.0, 0, []value.Value{value.NewInt32(5)})
	var s Scanner
	_, n, err := s.Scan(good[:len(good)-1])
	require.NoError(t, err)
	assert.Equal(t, 0, n, "an incomplete frame must not be consumed (I4)")
}

func TestUnknownFrameKindDiscardsSyncAndKind(t *testing.T) {
	input := []byte{0xAA, 0xAA, 0x7F, 0, 0}
	var s Scanner
	_, n, err := s.Scan(input)
	assert.Error(t, err)
	assert.Equal(t, 3, n)
}
