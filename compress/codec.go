// Package compress provides whole-buffer compression codecs for OML's
// compressed sinks and the server's decompressing ingress filters
// (spec.md §5 "compressed sink", §9 resync-on-codec-boundary).
//
// Each codec operates on one frame worth of data at a time rather than as a
// continuous stream: a sink opens a new compressed member for every flush, so
// a reader that loses sync can always recover at the next member boundary
// instead of having to reparse an entire connection's history.
package compress

import "fmt"

// Algorithm identifies a compression codec by the URI prefix used to select
// it (spec.md §9: "gzip+tcp://host:port", "zstd+file:path", ...).
type Algorithm string

const (
	None Algorithm = ""
	Gzip Algorithm = "gzip"
	Zlib Algorithm = "zlib"
	Zstd Algorithm = "zstd"
	LZ4  Algorithm = "lz4"
)

// Compressor compresses one complete buffer at a time.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses one complete buffer at a time.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// NewCodec is a factory function that creates a Codec for the named
// algorithm.
func NewCodec(alg Algorithm) (Codec, error) {
	switch alg {
	case None:
		return NewNoOpCompressor(), nil
	case Gzip, Zlib:
		return NewGzipCompressor(), nil
	case Zstd:
		return NewZstdCompressor(), nil
	case LZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("compress: unsupported algorithm %q", alg)
	}
}
