package ingress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the zstd frame magic number (spec.md §9: "each codec defines
// its own frame-boundary sentinel").
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Zstd decodes a stream of concatenated zstd frames, resyncing to the next
// frame magic on a truncated or corrupt frame.
type Zstd struct {
	pending []byte
	ready   []byte
}

var _ Filter = (*Zstd)(nil)

func (f *Zstd) Consume(in []byte) int {
	f.pending = append(f.pending, in...)
	f.drain()
	return len(in)
}

func (f *Zstd) Produce(out []byte) []byte {
	out = append(out, f.ready...)
	f.ready = f.ready[:0]
	return out
}

func (f *Zstd) drain() {
	for {
		start := bytes.Index(f.pending, zstdMagic)
		if start < 0 {
			f.pending = f.pending[:0]
			return
		}
		if start > 0 {
			f.pending = f.pending[start:]
		}

		src := bytes.NewReader(f.pending)
		dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return
		}

		decoded, err := io.ReadAll(dec)
		dec.Close()
		if err != nil {
			if isIncomplete(err) {
				return
			}
			f.pending = f.pending[len(zstdMagic):]
			continue
		}

		f.ready = append(f.ready, decoded...)
		f.pending = f.pending[len(f.pending)-src.Len():]
	}
}
