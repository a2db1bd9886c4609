package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor compresses each buffer as an independent gzip member, used
// for the "gzip+"/"zlib+" sink prefixes (spec.md §5, §9).
//
// Every Compress call opens and closes its own gzip.Writer, so the member
// boundary lands exactly at the buffer boundary the sink chose to flush at —
// the ingress side can always resync at the next member header even if an
// earlier one was truncated in transit.
type GzipCompressor struct{}

var _ Codec = GzipCompressor{}

func NewGzipCompressor() GzipCompressor { return GzipCompressor{} }

func (c GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: gzip close: %w", err)
	}

	return buf.Bytes(), nil
}

func (c GzipCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compress: gzip header: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("compress: gzip read: %w", err)
	}

	return out, nil
}
