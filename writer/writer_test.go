package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
	"github.com/mytestbed/oml/wire/binary"
)

type memSink struct {
	buf        bytes.Buffer
	closed     bool
	headerSent bool
}

func (s *memSink) Write(data []byte) error          { s.buf.Write(data); return nil }
func (s *memSink) WriteImmediate(data []byte) error { s.buf.Write(data); return nil }
func (s *memSink) Close() error                     { s.closed = true; return nil }
func (s *memSink) HeaderSent() bool                 { return s.headerSent }
func (s *memSink) SetHeaderSent(v bool)             { s.headerSent = v }

func testHeader() Header {
	return Header{
		Protocol:  5,
		Domain:    "myexp",
		StartTime: 1000,
		SenderID:  "node0",
		AppName:   "app",
		Schemas: []schema.Schema{
			{Index: 1, Name: "sine", Fields: []schema.Field{{Name: "v", Kind: value.KindDouble}}},
		},
	}
}

func TestWriterTextEmitsHeaderOnce(t *testing.T) {
	s := &memSink{}
	w := New(s, Text, testHeader())

	require.NoError(t, w.Emit(1, 0, 1.5, []value.Value{value.NewDouble(3.14)}))
	require.NoError(t, w.Emit(1, 1, 2.5, []value.Value{value.NewDouble(2.71)}))

	out := s.buf.String()
	assert.Contains(t, out, "protocol: 5\n")
	assert.Contains(t, out, "domain: myexp\n")
	assert.Contains(t, out, "schema: 1 sine v:double\n")
	assert.Contains(t, out, "content: text\n")
	assert.Equal(t, 1, strings.Count(out, "protocol: 5"))
}

func TestWriterBinaryEmitsParsableFrames(t *testing.T) {
	s := &memSink{}
	w := New(s, Binary, testHeader())

	require.NoError(t, w.Emit(1, 0, 1.5, []value.Value{value.NewDouble(3.14)}))
	require.NoError(t, w.Close())

	data := s.buf.Bytes()
	// Skip the plaintext header block up to its trailing blank line.
	idx := bytes.Index(data, []byte("\n\n"))
	require.GreaterOrEqual(t, idx, 0)
	frameBytes := data[idx+2:]

	var scanner binary.Scanner
	frame, consumed, err := scanner.Scan(frameBytes)
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, len(frameBytes), consumed)
	assert.Equal(t, 1, frame.StreamIndex)
	assert.Equal(t, int32(0), frame.Seq)
	assert.InDelta(t, 1.5, frame.Timestamp, 1e-6)
	require.Len(t, frame.Values, 3)
	assert.InDelta(t, 3.14, frame.Values[2].Float64(), 1e-6)
}
