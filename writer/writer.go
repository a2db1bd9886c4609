// Package writer binds a schema-typed stream of rows to a sink, emitting the
// session headers once and then one frame or line per row (spec.md §4.6).
package writer

import (
	"fmt"

	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/sink"
	"github.com/mytestbed/oml/value"
	"github.com/mytestbed/oml/wire/binary"
	"github.com/mytestbed/oml/wire/text"
)

// Encoding selects the wire form a Writer serializes rows as.
type Encoding int

const (
	Binary Encoding = iota
	Text
)

// Header carries the session metadata written once, before the first row
// (spec.md §4.6: "protocol, domain, start-time, sender-id, app-name, one
// schema: per declared stream, content:").
type Header struct {
	Protocol  int
	Domain    string
	StartTime int64
	SenderID  string
	AppName   string
	Schemas   []schema.Schema
	Content   string // "binary" or "text"
}

// Writer streams rows of one client session to a Sink.
//
// Not safe for concurrent use; a Writer is normally owned by a single
// Measurement Stream, or its callers serialize access (spec.md §5 "sinks
// are owned by a single writer unless explicitly shared, in which case
// their write must be serialised by the caller").
type Writer struct {
	Sink     sink.Sink
	Encoding Encoding

	header     Header
	headerSent bool
	marshaler  *binary.Marshaler
}

func New(s sink.Sink, enc Encoding, hdr Header) *Writer {
	return &Writer{Sink: s, Encoding: enc, header: hdr}
}

// Emit writes one row, first writing the session header if the sink has not
// seen it yet (the first call, or the first call after a Net sink reconnected).
func (w *Writer) Emit(streamIndex int, seq int32, ts float64, values []value.Value) error {
	if !w.headerSent || !w.Sink.HeaderSent() {
		if err := w.writeHeader(); err != nil {
			return err
		}
		w.headerSent = true
		w.Sink.SetHeaderSent(true)
	}

	switch w.Encoding {
	case Binary:
		return w.emitBinary(streamIndex, seq, ts, values)
	case Text:
		return w.emitText(streamIndex, seq, ts, values)
	default:
		return fmt.Errorf("writer: unknown encoding %d", w.Encoding)
	}
}

func (w *Writer) emitBinary(streamIndex int, seq int32, ts float64, values []value.Value) error {
	if w.marshaler == nil {
		w.marshaler = binary.NewMarshaler()
	}

	w.marshaler.Begin(streamIndex, len(values)+2)
	w.marshaler.AppendSeqTimestamp(seq, ts)
	for _, v := range values {
		if err := w.marshaler.AppendValue(v); err != nil {
			return fmt.Errorf("writer: marshal value: %w", err)
		}
	}

	return w.Sink.Write(w.marshaler.Finish())
}

func (w *Writer) emitText(streamIndex int, seq int32, ts float64, values []value.Value) error {
	line, err := text.FormatDataLine(ts, streamIndex, int64(seq), values)
	if err != nil {
		return fmt.Errorf("writer: format data line: %w", err)
	}

	return w.Sink.Write([]byte(line))
}

func (w *Writer) writeHeader() error {
	content := "binary"
	if w.Encoding == Text {
		content = "text"
	}
	w.header.Content = content

	var b []byte
	b = appendHeaderLine(b, "protocol", fmt.Sprintf("%d", w.header.Protocol))
	b = appendHeaderLine(b, "domain", w.header.Domain)
	b = appendHeaderLine(b, "start-time", fmt.Sprintf("%d", w.header.StartTime))
	b = appendHeaderLine(b, "sender-id", w.header.SenderID)
	b = appendHeaderLine(b, "app-name", w.header.AppName)
	for i := range w.header.Schemas {
		line, err := text.FormatSchemaLine(&w.header.Schemas[i])
		if err != nil {
			return fmt.Errorf("writer: format schema line: %w", err)
		}
		b = appendHeaderLine(b, "schema", line)
	}
	b = appendHeaderLine(b, "content", content)
	b = append(b, '\n')

	return w.Sink.WriteImmediate(b)
}

func appendHeaderLine(b []byte, key, value string) []byte {
	b = append(b, key...)
	b = append(b, ':', ' ')
	b = append(b, value...)
	b = append(b, '\n')

	return b
}

// Close flushes and releases resources the Writer holds.
func (w *Writer) Close() error {
	if w.marshaler != nil {
		w.marshaler.Release()
		w.marshaler = nil
	}

	return w.Sink.Close()
}
