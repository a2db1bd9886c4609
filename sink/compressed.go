package sink

import (
	"fmt"
	"time"

	"github.com/mytestbed/oml/compress"
)

// flushWriteCount and flushInterval bound how long uncompressed writes
// accumulate before Compressed flushes a codec member to the inner sink
// (spec.md §4.7 "Zlib sink": "flushes ... when either 10 writes have
// accumulated or 1 second has elapsed since the last flush").
const (
	flushWriteCount = 10
	flushInterval   = 1 * time.Second
)

// Compressed wraps another Sink, buffering writes and periodically flushing
// them as one codec member (spec.md §4.7, §9 "gzip+"/"zstd+"/"lz4+" prefixes).
type Compressed struct {
	headerState

	inner Sink
	codec compress.Codec
	name  compress.Algorithm

	buf       []byte
	writes    int
	lastFlush time.Time
}

var _ Sink = (*Compressed)(nil)

func NewCompressed(inner Sink, alg compress.Algorithm) (*Compressed, error) {
	codec, err := compress.NewCodec(alg)
	if err != nil {
		return nil, err
	}

	return &Compressed{inner: inner, codec: codec, name: alg, lastFlush: time.Time{}}, nil
}

func (s *Compressed) Write(data []byte) error {
	s.buf = append(s.buf, data...)
	s.writes++

	if s.writes >= flushWriteCount || time.Since(s.lastFlush) >= flushInterval {
		return s.flush()
	}

	return nil
}

func (s *Compressed) WriteImmediate(data []byte) error {
	s.buf = append(s.buf, data...)
	return s.flush()
}

// flush compresses everything buffered so far into one codec member and
// hands it to the inner sink. Before the very first member, it writes the
// one-line plaintext encapsulation header the inner sink's peer needs to
// know which codec to apply (spec.md §4.7: "emits a one-line uncompressed
// header `encapsulation: gzip\n`").
func (s *Compressed) flush() error {
	if len(s.buf) == 0 {
		s.lastFlush = time.Now()
		return nil
	}

	if !s.inner.HeaderSent() {
		if err := s.inner.WriteImmediate([]byte(fmt.Sprintf("encapsulation: %s\n", s.name))); err != nil {
			return fmt.Errorf("sink: compressed header: %w", err)
		}
		s.inner.SetHeaderSent(true)
	}

	member, err := s.codec.Compress(s.buf)
	if err != nil {
		return fmt.Errorf("sink: compress: %w", err)
	}

	if err := s.inner.WriteImmediate(member); err != nil {
		return err
	}

	s.buf = s.buf[:0]
	s.writes = 0
	s.lastFlush = time.Now()

	return nil
}

func (s *Compressed) Close() error {
	if err := s.flush(); err != nil {
		return err
	}

	return s.inner.Close()
}
