package ingress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Magic is the LZ4 frame magic number (spec.md §9).
var lz4Magic = []byte{0x04, 0x22, 0x4D, 0x18}

// LZ4 decodes a stream of concatenated LZ4 frames, resyncing to the next
// frame magic on a truncated or corrupt frame.
type LZ4 struct {
	pending []byte
	ready   []byte
}

var _ Filter = (*LZ4)(nil)

func (f *LZ4) Consume(in []byte) int {
	f.pending = append(f.pending, in...)
	f.drain()
	return len(in)
}

func (f *LZ4) Produce(out []byte) []byte {
	out = append(out, f.ready...)
	f.ready = f.ready[:0]
	return out
}

func (f *LZ4) drain() {
	for {
		start := bytes.Index(f.pending, lz4Magic)
		if start < 0 {
			f.pending = f.pending[:0]
			return
		}
		if start > 0 {
			f.pending = f.pending[start:]
		}

		src := bytes.NewReader(f.pending)
		r := lz4.NewReader(src)

		decoded, err := io.ReadAll(r)
		if err != nil {
			if isIncomplete(err) {
				return
			}
			f.pending = f.pending[len(lz4Magic):]
			continue
		}

		f.ready = append(f.ready, decoded...)
		f.pending = f.pending[len(f.pending)-src.Len():]
	}
}
