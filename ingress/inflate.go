package ingress

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte gzip member header (spec.md §9 Design Note
// "Gzip resync": "scan for 0x1f 0x8b ... reset the inflate state at that
// offset, continue").
var gzipMagic = []byte{0x1f, 0x8b}

// Inflate decodes a stream of concatenated gzip members, resyncing to the
// next member header whenever one is truncated or corrupt. This is lossy by
// design: bytes between the failed member and the next sync point are
// discarded.
type Inflate struct {
	pending []byte
	ready   []byte
}

var _ Filter = (*Inflate)(nil)

func (f *Inflate) Consume(in []byte) int {
	f.pending = append(f.pending, in...)
	f.drain()
	return len(in)
}

func (f *Inflate) Produce(out []byte) []byte {
	out = append(out, f.ready...)
	f.ready = f.ready[:0]
	return out
}

// drain attempts to decode as many complete gzip members as currently sit in
// pending, resyncing past any member that fails to decode.
func (f *Inflate) drain() {
	for {
		start := bytes.Index(f.pending, gzipMagic)
		if start < 0 {
			f.pending = f.pending[:0]
			return
		}
		if start > 0 {
			f.pending = f.pending[start:]
		}

		src := bytes.NewReader(f.pending)
		r, err := gzip.NewReader(src)
		if err != nil {
			if isIncomplete(err) {
				// Header not fully arrived yet; wait for more bytes.
				return
			}
			// Invalid header: resync past this magic and retry.
			f.pending = f.pending[len(gzipMagic):]
			continue
		}

		decoded, err := io.ReadAll(r)
		if err != nil {
			if isIncomplete(err) {
				return
			}
			// Corrupt or truncated member: resync past this magic and retry.
			f.pending = f.pending[len(gzipMagic):]
			continue
		}

		f.ready = append(f.ready, decoded...)

		// src.Len() is what's left unread after the member trailer, i.e.
		// any bytes following this member (a concatenated next member, or
		// a partial one awaiting more data).
		consumedByMember := len(f.pending) - src.Len()
		f.pending = f.pending[consumedByMember:]
	}
}

// isIncomplete reports whether err indicates the buffered bytes simply don't
// reach a frame boundary yet, as opposed to the data at the current sync
// point being invalid.
func isIncomplete(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
