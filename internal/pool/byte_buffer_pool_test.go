package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

func TestByteBufferReset(t *testing.T) {
	bb := NewByteBuffer(FrameBufferDefaultSize)
	bb.MustWrite([]byte("some data"))
	originalCap := bb.Cap()

	bb.Reset()

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, originalCap, bb.Cap())
}

func TestByteBufferWriteGrows(t *testing.T) {
	bb := NewByteBuffer(4)
	n, err := bb.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(bb.Bytes()))
}

func TestByteBufferSliceBounds(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWrite([]byte("abcdef"))
	assert.Equal(t, []byte("bcd"), bb.Slice(1, 4))
	assert.Panics(t, func() { bb.Slice(-1, 2) })
}

func TestByteBufferPoolRoundTrip(t *testing.T) {
	p := NewByteBufferPool(64, 128)
	bb := p.Get()
	bb.MustWrite([]byte("payload"))
	p.Put(bb)

	bb2 := p.Get()
	assert.Equal(t, 0, bb2.Len(), "pooled buffer must come back reset")
}

func TestByteBufferPoolDiscardsOversized(t *testing.T) {
	p := NewByteBufferPool(8, 16)
	bb := p.Get()
	bb.Grow(64)
	bb.SetLength(64)
	p.Put(bb) // exceeds maxThreshold, must be discarded rather than pooled

	bb2 := p.Get()
	assert.LessOrEqual(t, bb2.Cap(), 16)
}

func TestFrameAndConnBufferHelpers(t *testing.T) {
	fb := GetFrameBuffer()
	fb.MustWrite([]byte("frame"))
	PutFrameBuffer(fb)

	cb := GetConnBuffer()
	assert.Equal(t, 0, cb.Len())
	PutConnBuffer(cb)
}
