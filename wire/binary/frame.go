package binary

import (
	"encoding/binary"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/internal/pool"
	"github.com/mytestbed/oml/value"
)

// Sync bytes that open every frame (spec.md §4.2).
const (
	sync0 byte = 0xAA
	sync1 byte = 0xAA
)

// Frame kinds.
const (
	KindShort byte = 0x01 // 16-bit length
	KindLong  byte = 0x02 // 32-bit length
)

const shortMaxLen = 0xFFFF

// Marshaler builds one frame at a time: sync bytes, kind, a placeholder length, the
// (values_count, stream_index) pair, then marshalled values. It always starts the
// value list with the sequence number (Int32) and timestamp (Double), per spec.md
// §4.2.
//
// A Marshaler is not safe for concurrent use; callers serialize access to one
// instance (typically one per writer, guarded by the owning measurement point's
// mutex).
type Marshaler struct {
	buf    *pool.ByteBuffer
	values int
}

// NewMarshaler returns a Marshaler backed by a pooled buffer.
func NewMarshaler() *Marshaler {
	return &Marshaler{buf: pool.GetFrameBuffer()}
}

// Release returns the Marshaler's buffer to the pool. The Marshaler must not be used
// afterwards.
func (m *Marshaler) Release() {
	pool.PutFrameBuffer(m.buf)
	m.buf = nil
}

// Begin resets the Marshaler and writes the frame preamble: sync bytes, a short-kind
// byte, a placeholder 16-bit length, then (values_count, stream_index).
//
// valuesCount must count every value that will be appended, including the leading
// sequence number and timestamp.
func (m *Marshaler) Begin(streamIndex int, valuesCount int) {
	m.buf.Reset()
	m.values = valuesCount
	m.buf.MustWrite([]byte{sync0, sync1, KindShort, 0, 0, byte(valuesCount), byte(streamIndex)})
}

// AppendSeqTimestamp appends the mandatory leading (seqno, timestamp) pair.
func (m *Marshaler) AppendSeqTimestamp(seq int32, ts float64) {
	m.buf.MustWrite(mustMarshal(value.NewInt32(seq)))
	m.buf.MustWrite(mustMarshal(value.NewDouble(ts)))
}

func mustMarshal(v value.Value) []byte {
	b, err := MarshalValue(nil, v)
	if err != nil {
		// Int32/Double encodings never fail; a failure here is a library bug.
		panic(err)
	}

	return b
}

// AppendValue marshals v and appends it to the frame body.
func (m *Marshaler) AppendValue(v value.Value) error {
	b, err := MarshalValue(m.buf.Bytes(), v)
	if err != nil {
		return err
	}
	// MarshalValue may have reallocated past the buffer's capacity (a large
	// blob or string), so adopt the returned slice rather than re-slicing.
	m.buf.B = b

	return nil
}

// Finish fills in the length field, promoting to the long frame kind (32-bit length,
// per spec.md §4.2) if the body exceeds the short form's 0xFFFF limit, and returns
// the complete frame bytes. The returned slice is only valid until the next call to
// Begin or Release.
func (m *Marshaler) Finish() []byte {
	body := m.buf.Bytes()
	// bytes after the length field: (values_count, stream_index) + values.
	bodyLen := len(body) - 5 // sync(2) + kind(1) + shortLen(2)

	if bodyLen <= shortMaxLen {
		binary.BigEndian.PutUint16(body[3:5], uint16(bodyLen))
		return body
	}

	// Promote: shift everything after the 2-byte short length two bytes to the
	// right to make room for a 4-byte long length, per the "Frame size
	// auto-promotion" design note.
	m.buf.Grow(2)
	m.buf.SetLength(len(body) + 2)
	grown := m.buf.Bytes()
	copy(grown[7:], body[5:])
	grown[2] = KindLong
	binary.BigEndian.PutUint32(grown[3:7], uint32(bodyLen))

	return grown
}

// Scanner parses frames out of a byte stream, implementing the resync behavior of
// spec.md §4.2/§8: on corrupt framing it scans forward for the next sync pair and
// resumes from there, never crashing on a bogus length and never partially consuming
// a message (I4).
type Scanner struct{}

// ParsedFrame is one successfully parsed frame.
type ParsedFrame struct {
	StreamIndex int
	Seq         int32
	Timestamp   float64
	Values      []value.Value // includes seq/timestamp as the first two entries
}

// Scan attempts to parse one frame from the front of buf.
//
// Return values:
//   - frame, n, nil: a frame was parsed; n bytes of buf were consumed.
//   - nil, n, nil: no complete frame is available yet (n==0), or n bytes of garbage
//     were discarded while resyncing and the caller should call Scan again on the
//     remainder.
//   - nil, 0, ErrFrameNoSync: buf contains no sync sequence at all; the caller
//     should keep buffering more bytes before calling Scan again.
//   - nil, n, err (n > 0): the frame at the front of buf is corrupt (unknown
//     kind, impossible length, or an undecodable value); n bytes were discarded
//     and the caller should call Scan again on the remainder.
func (Scanner) Scan(buf []byte) (*ParsedFrame, int, error) {
	i := findSync(buf)
	if i < 0 {
		return nil, 0, errs.ErrFrameNoSync
	}
	if i > 0 {
		// Garbage before the first sync pair; discard it and let the caller retry.
		return nil, i, nil
	}

	if len(buf) < 3 {
		return nil, 0, nil // need more bytes to even see the frame kind
	}
	kind := buf[2]

	var lenFieldSize int
	switch kind {
	case KindShort:
		lenFieldSize = 2
	case KindLong:
		lenFieldSize = 4
	default:
		// Unknown kind is a protocol error for this frame only (spec.md §4.2):
		// discard the sync pair and kind byte, then let the caller resync.
		return nil, 3, errs.ErrUnknownFrame
	}

	headerLen := 3 + lenFieldSize
	if len(buf) < headerLen {
		return nil, 0, nil
	}

	var bodyLen int
	if kind == KindShort {
		bodyLen = int(binary.BigEndian.Uint16(buf[3:5]))
	} else {
		bodyLen = int(binary.BigEndian.Uint32(buf[3:7]))
	}

	total := headerLen + bodyLen
	if total > len(buf) {
		return nil, 0, nil // full frame not buffered yet
	}

	body := buf[headerLen:total]
	if len(body) < 2 {
		// Impossible length: consume the advertised frame and move on rather than crash.
		return nil, total, errs.ErrFrameTooShort
	}

	valuesCount := int(body[0])
	streamIndex := int(body[1])

	frame, err := parseValues(body[2:], valuesCount)
	if err != nil {
		return nil, total, err
	}

	pf := &ParsedFrame{StreamIndex: streamIndex, Values: frame}
	if len(frame) >= 1 && frame[0].Kind() == value.KindInt32 {
		pf.Seq = frame[0].Int32()
	}
	if len(frame) >= 2 && frame[1].Kind() == value.KindDouble {
		pf.Timestamp = frame[1].Double()
	}

	return pf, total, nil
}

func parseValues(body []byte, count int) ([]value.Value, error) {
	vals := make([]value.Value, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		v, n, err := UnmarshalValue(body[off:])
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		off += n
	}

	return vals, nil
}

// findSync returns the index of the first occurrence of two consecutive sync bytes
// in buf, or -1 if none is present.
func findSync(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == sync0 && buf[i+1] == sync1 {
			return i
		}
	}

	return -1
}
