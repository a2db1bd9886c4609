// Package server implements the collector side of OMSP: accepting client
// connections, parsing their header block, then decoding a stream of
// binary or text frames into storage inserts (spec.md §4.8).
package server

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/header"
	"github.com/mytestbed/oml/ingress"
	"github.com/mytestbed/oml/internal/pool"
	"github.com/mytestbed/oml/internal/xlog"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/storage"
	"github.com/mytestbed/oml/value"
	"github.com/mytestbed/oml/wire/binary"
	"github.com/mytestbed/oml/wire/text"
)

// state is a Conn's position in the spec.md §4.8 state diagram.
type state int

const (
	stateHeader state = iota
	stateConfigure
	stateBinaryData
	stateTextData
	stateProtocolError
	stateDisconnected
)

// maxResyncFailures bounds how many consecutive ProtocolError recoveries a
// connection tolerates within one frame before the socket is closed
// (spec.md §4.8 "Resilience").
const maxResyncFailures = 8

// Conn handles one accepted client connection end to end: header parsing,
// domain/sender/schema setup, then a decode loop dispatching rows to the
// storage adapter. One Conn owns one connection goroutine and is not used
// concurrently (spec.md §5: "the server runs one thread per accepted
// connection").
type Conn struct {
	nc      net.Conn
	adapter storage.Adapter

	state state

	protocol   int
	domain     string
	senderName string
	senderID   int
	appName    string
	content    string

	startTimeClient float64
	startTimeServer float64
	timeOffset      float64

	encapsulation string

	db     storage.DB
	tables map[int]storage.Table
	schema *schema.Table
}

// NewConn wraps an accepted net.Conn for a.
func NewConn(nc net.Conn, a storage.Adapter) *Conn {
	return &Conn{
		nc:      nc,
		adapter: a,
		state:   stateHeader,
		tables:  make(map[int]storage.Table),
		schema:  schema.NewTable(),
	}
}

// Serve runs the connection's full lifecycle: header, configure, then the
// data decode loop, until EOF or an unrecoverable protocol error. It always
// closes nc before returning.
func (c *Conn) Serve() {
	defer c.nc.Close()

	r := bufio.NewReader(c.nc)

	r, err := c.decapsulate(r)
	if err != nil {
		xlog.Warnf("server: %s: encapsulation: %v", c.nc.RemoteAddr(), err)
		c.state = stateDisconnected
		return
	}

	if err := c.readHeader(r); err != nil {
		xlog.Warnf("server: %s: header: %v", c.nc.RemoteAddr(), err)
		c.state = stateDisconnected
		return
	}

	if err := c.configure(); err != nil {
		xlog.Warnf("server: %s: configure: %v", c.nc.RemoteAddr(), err)
		c.state = stateDisconnected
		return
	}

	switch c.content {
	case "binary":
		c.state = stateBinaryData
		err = c.serveBinary(r)
	case "text":
		c.state = stateTextData
		err = c.serveText(r)
	default:
		err = fmt.Errorf("content %q: %w", c.content, errs.ErrMissingHeader)
	}

	if err != nil && err != io.EOF {
		xlog.Warnf("server: %s: %v", c.nc.RemoteAddr(), err)
	}
	c.state = stateDisconnected

	if c.db != nil {
		if err := c.adapter.Release(c.db); err != nil {
			xlog.Warnf("server: %s: release: %v", c.nc.RemoteAddr(), err)
		}
	}
}

// decapsulate peeks the connection for an optional one-line plaintext
// `encapsulation: <name>\n` preamble (spec.md §4.4, written by sink.Compressed
// ahead of its first compressed member) and, if present, returns a reader
// that transparently decodes the remainder of the connection through the
// named codec's ingress.Filter before the header parser or OMSP codec ever
// see it. A connection with no such preamble is returned unchanged.
func (c *Conn) decapsulate(r *bufio.Reader) (*bufio.Reader, error) {
	const prefix = "encapsulation:"

	peeked, err := r.Peek(len(prefix))
	if err != nil || string(peeked) != prefix {
		return r, nil //nolint:nilerr // no preamble, or too short a connection to have one
	}

	line, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read encapsulation header: %w", err)
	}
	c.encapsulation = strings.TrimSpace(strings.TrimPrefix(line, prefix))

	filter, err := ingress.ForEncapsulation(c.encapsulation)
	if err != nil {
		return nil, err
	}

	return bufio.NewReader(newFilterReader(r, filter)), nil
}

// readHeader reads the `key: value` block terminated by a blank line
// (spec.md §4.8 "Header").
func (c *Conn) readHeader(r *bufio.Reader) error {
	t, err := header.Parse(r, func(key string) {
		xlog.Debugf("server: %s: unrecognized header key %q", c.nc.RemoteAddr(), key)
	})
	if err != nil {
		return err
	}

	if v, ok := t.Get("protocol"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("protocol %q: %w", v, errs.ErrUnknownProtocol)
		}
		c.protocol = n
	}
	if v, ok := t.Get("domain"); ok {
		c.domain = v
	}
	if v, ok := t.Get("sender-id"); ok {
		c.senderName = v
	}
	if v, ok := t.Get("app-name"); ok {
		c.appName = v
	}
	if v, ok := t.Get("content"); ok {
		c.content = v
	}
	if v, ok := t.Get("start-time"); ok {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("start-time %q: %w", v, errs.ErrMissingHeader)
		}
		c.startTimeClient = n
	}

	for _, line := range t.All("schema") {
		sch, err := text.ParseSchemaLine(line)
		if err != nil {
			return err
		}
		c.schema.Set(sch)
	}

	return nil
}

// configure validates the header block and opens the domain database,
// registers the sender, and materializes a backend table for every schema
// declared in the header (spec.md §4.8 "Configure").
func (c *Conn) configure() error {
	c.state = stateConfigure

	if c.domain == "" || c.content == "" {
		return errs.ErrMissingHeader
	}

	db, err := c.adapter.Open(c.domain)
	if err != nil {
		return fmt.Errorf("open domain %q: %w", c.domain, err)
	}
	c.db = db

	senderID, err := c.adapter.AddSender(db, c.senderName)
	if err != nil {
		return fmt.Errorf("add sender %q: %w", c.senderName, err)
	}
	c.senderID = senderID

	c.startTimeServer = float64(time.Now().UnixNano()) / 1e9
	c.timeOffset = c.startTimeClient - c.startTimeServer

	for _, sch := range c.schema.All() {
		if sch.Index == schema.MetadataIndex {
			continue
		}
		if err := c.materializeTable(sch); err != nil {
			return err
		}
	}

	return nil
}

func (c *Conn) materializeTable(sch *schema.Schema) error {
	tbl, err := c.adapter.CreateTable(c.db, sch)
	if err != nil {
		return fmt.Errorf("create table for stream %d: %w", sch.Index, err)
	}
	c.tables[sch.Index] = tbl

	return nil
}

// insert dispatches one parsed row, handling stream-0 metadata specially
// (spec.md §4.8 "Stream 0 data").
func (c *Conn) insert(streamIndex int, seq int64, ts float64, vals []value.Value) error {
	if streamIndex == schema.MetadataIndex {
		return c.insertMetadata(vals)
	}

	tbl, ok := c.tables[streamIndex]
	if !ok {
		sch := c.schema.Get(streamIndex)
		if sch == nil {
			return fmt.Errorf("stream %d: %w", streamIndex, errs.ErrUnknownStreamIndex)
		}
		if err := c.materializeTable(sch); err != nil {
			return err
		}
		tbl = c.tables[streamIndex]
	}

	tsServer := ts + c.timeOffset

	return c.adapter.Insert(c.db, tbl, c.senderID, seq, ts, tsServer, vals)
}

// insertMetadata handles one (subject, key, value) stream-0 tuple: a
// ("." "schema" <declaration>) tuple redeclares a schema mid-stream
// (protocol >= 4); anything else is stored verbatim in
// `_experiment_metadata` (spec.md §4.8).
func (c *Conn) insertMetadata(vals []value.Value) error {
	if len(vals) != 3 {
		return fmt.Errorf("metadata tuple with %d fields: %w", len(vals), errs.ErrFieldCountMismatch)
	}
	subject := vals[0].String()
	key := vals[1].String()
	val := vals[2].String()

	if subject == "." && key == "schema" {
		sch, err := text.ParseSchemaLine(val)
		if err != nil {
			return err
		}
		c.schema.Set(sch)

		return c.materializeTable(sch)
	}

	metaTable, ok := c.tables[schema.MetadataIndex]
	if !ok {
		tbl, err := c.adapter.CreateTable(c.db, &schema.Metadata)
		if err != nil {
			return err
		}
		c.tables[schema.MetadataIndex] = tbl
		metaTable = tbl
	}

	return c.adapter.Insert(c.db, metaTable, c.senderID, 0, 0, 0, []value.Value{
		value.NewString(subject), value.NewString(key), value.NewString(val),
	})
}

// serveBinary decodes frames from r until EOF, resyncing past ProtocolError
// failures and closing the connection after maxResyncFailures consecutive
// failures within one frame (spec.md §4.8 "Resilience").
func (c *Conn) serveBinary(r *bufio.Reader) error {
	buf := pool.GetConnBuffer()
	defer pool.PutConnBuffer(buf)

	var scanner binary.Scanner
	chunk := make([]byte, 8192)
	failures := 0

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.MustWrite(chunk[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		for {
			frame, consumed, scanErr := scanner.Scan(buf.Bytes())
			if scanErr == errs.ErrFrameNoSync {
				break // no sync pair buffered at all yet; wait for more bytes
			}
			if scanErr != nil {
				// Garbage frame kind/length: Scan already consumed past it
				// (spec.md §4.8 "Resilience" — resync, don't crash).
				buf.B = buf.B[consumed:]
				failures++
				if failures >= maxResyncFailures {
					return fmt.Errorf("server: repeated resync failures: %w", scanErr)
				}

				continue
			}
			failures = 0

			if frame == nil {
				if consumed == 0 {
					break // nothing complete buffered yet
				}
				buf.B = buf.B[consumed:]

				continue
			}

			buf.B = buf.B[consumed:]

			vals := frame.Values
			if len(vals) >= 2 {
				vals = vals[2:] // drop leading (seq, timestamp) pair
			}
			if err := c.insert(frame.StreamIndex, int64(frame.Seq), frame.Timestamp, vals); err != nil {
				xlog.Warnf("server: %s: insert: %v", c.nc.RemoteAddr(), err)
			}
		}
	}
}

// serveText decodes `\n`-terminated lines from r until EOF (spec.md §4.3/§4.8).
func (c *Conn) serveText(r *bufio.Reader) error {
	var scanner text.LineScanner
	chunk := make([]byte, 8192)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			scanner.Feed(chunk[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		for {
			line, ok := scanner.Next()
			if !ok {
				break
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := c.handleTextLine(line); err != nil {
				xlog.Warnf("server: %s: %v", c.nc.RemoteAddr(), err)
			}
		}
	}
}

func (c *Conn) handleTextLine(line string) error {
	streamIndex, err := text.PeekStream(line)
	if err != nil {
		return err
	}

	sch := c.schema.Get(streamIndex)
	parsed, err := text.ParseDataLine(line, sch)
	if err != nil {
		return err
	}

	return c.insert(parsed.Stream, parsed.Seq, parsed.Timestamp, parsed.Values)
}

// filterReader adapts an ingress.Filter into an io.Reader, pulling raw bytes
// from r, feeding them through the filter, and serving decoded bytes out of
// a small leftover buffer between calls.
type filterReader struct {
	r      io.Reader
	filter ingress.Filter

	raw      []byte
	leftover []byte
}

func newFilterReader(r io.Reader, f ingress.Filter) *filterReader {
	return &filterReader{r: r, filter: f, raw: make([]byte, 8192)}
}

func (fr *filterReader) Read(p []byte) (int, error) {
	for len(fr.leftover) == 0 {
		n, err := fr.r.Read(fr.raw)
		if n > 0 {
			fr.filter.Consume(fr.raw[:n])
			fr.leftover = fr.filter.Produce(fr.leftover[:0])
		}
		if len(fr.leftover) > 0 {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	n := copy(p, fr.leftover)
	fr.leftover = fr.leftover[n:]

	return n, nil
}
