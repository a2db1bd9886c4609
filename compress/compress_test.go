package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = []byte("ts\tstream0\t1\t1.0\t2.0\nts\tstream0\t2\t3.0\t4.0\n")

func TestCodecRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4} {
		t.Run(string(alg)+"_or_none", func(t *testing.T) {
			codec, err := NewCodec(alg)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestNewCodecUnknownAlgorithm(t *testing.T) {
	_, err := NewCodec("brotli")
	assert.Error(t, err)
}

func TestNoOpPassesThroughUnmodified(t *testing.T) {
	c := NewNoOpCompressor()
	out, err := c.Compress(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestGzipEmptyInputDecompressesEmpty(t *testing.T) {
	c := NewGzipCompressor()
	compressed, err := c.Compress(nil)
	require.NoError(t, err)

	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, out)
}
