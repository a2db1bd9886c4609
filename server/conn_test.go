package server

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/compress"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/storage"
	"github.com/mytestbed/oml/value"
	"github.com/mytestbed/oml/wire/binary"
)

// fakeAdapter is an in-memory storage.Adapter used to observe inserts
// without depending on storage/sqladapter or storage/textadapter.
type fakeAdapter struct {
	mu      sync.Mutex
	domains map[string]*fakeDB
}

type fakeDB struct {
	mu      sync.Mutex
	senders map[string]int
	nextID  int
	tables  map[string]*fakeTable
}

type fakeTable struct {
	mu   sync.Mutex
	name string
	rows []fakeRow
}

type fakeRow struct {
	senderID           int
	seq                int64
	tsClient, tsServer float64
	vals               []value.Value
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{domains: make(map[string]*fakeDB)}
}

func (a *fakeAdapter) Open(domain string) (storage.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if db, ok := a.domains[domain]; ok {
		return db, nil
	}
	db := &fakeDB{senders: make(map[string]int), nextID: 1, tables: make(map[string]*fakeTable)}
	a.domains[domain] = db

	return db, nil
}

func (a *fakeAdapter) CreateTable(db storage.DB, s *schema.Schema) (storage.Table, error) {
	fdb := db.(*fakeDB)
	fdb.mu.Lock()
	defer fdb.mu.Unlock()
	if t, ok := fdb.tables[s.Name]; ok {
		return t, nil
	}
	t := &fakeTable{name: s.Name}
	fdb.tables[s.Name] = t

	return t, nil
}

func (a *fakeAdapter) Insert(db storage.DB, t storage.Table, senderID int, seq int64, tsClient, tsServer float64, vals []value.Value) error {
	ft := t.(*fakeTable)
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.rows = append(ft.rows, fakeRow{senderID, seq, tsClient, tsServer, vals})

	return nil
}

func (a *fakeAdapter) AddSender(db storage.DB, name string) (int, error) {
	fdb := db.(*fakeDB)
	fdb.mu.Lock()
	defer fdb.mu.Unlock()
	if id, ok := fdb.senders[name]; ok {
		return id, nil
	}
	id := fdb.nextID
	fdb.nextID++
	fdb.senders[name] = id

	return id, nil
}

func (a *fakeAdapter) Release(db storage.DB) error { return nil }

func startTestServer(t *testing.T, a storage.Adapter) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go NewConn(conn, a).Serve()
		}
	}()

	return ln.Addr().String(), func() { ln.Close() }
}

func TestBinaryConnInsertsRow(t *testing.T) {
	a := newFakeAdapter()
	addr, stop := startTestServer(t, a)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	header := "protocol: 5\ndomain: exp1\nsender-id: node0\napp-name: app\ncontent: binary\nstart-time: 1000\nschema: 1 sine v:double\n\n"
	_, err = conn.Write([]byte(header))
	require.NoError(t, err)

	m := binary.NewMarshaler()
	m.Begin(1, 3)
	m.AppendSeqTimestamp(0, 1.5)
	require.NoError(t, m.AppendValue(value.NewDouble(42.0)))
	frame := append([]byte(nil), m.Finish()...)
	m.Release()

	_, err = conn.Write(frame)
	require.NoError(t, err)
	conn.Close()

	require.Eventually(t, func() bool {
		db, _ := a.Open("exp1")
		fdb := db.(*fakeDB)
		fdb.mu.Lock()
		defer fdb.mu.Unlock()
		tbl, ok := fdb.tables["sine"]
		if !ok {
			return false
		}
		tbl.mu.Lock()
		defer tbl.mu.Unlock()
		return len(tbl.rows) == 1
	}, time.Second, 10*time.Millisecond)

	db, _ := a.Open("exp1")
	fdb := db.(*fakeDB)
	row := fdb.tables["sine"].rows[0]
	assert.Equal(t, int64(0), row.seq)
	assert.Equal(t, 42.0, row.vals[0].Double())
}

func TestTextConnInsertsRowAndMetadata(t *testing.T) {
	a := newFakeAdapter()
	addr, stop := startTestServer(t, a)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	header := "protocol: 5\ndomain: exp2\nsender-id: node0\napp-name: app\ncontent: text\nstart-time: 1000\nschema: 1 sine v:double\n\n"
	_, err = conn.Write([]byte(header))
	require.NoError(t, err)

	_, err = fmt.Fprintf(conn, "1.5\t1\t0\t42\n")
	require.NoError(t, err)
	_, err = fmt.Fprintf(conn, "1.5\t0\t0\tapp\tversion\t1.0\n")
	require.NoError(t, err)
	conn.Close()

	require.Eventually(t, func() bool {
		db, _ := a.Open("exp2")
		fdb := db.(*fakeDB)
		fdb.mu.Lock()
		defer fdb.mu.Unlock()
		tbl, ok := fdb.tables["sine"]
		meta, mok := fdb.tables["_experiment_metadata"]
		if !ok || !mok {
			return false
		}
		tbl.mu.Lock()
		meta.mu.Lock()
		defer tbl.mu.Unlock()
		defer meta.mu.Unlock()

		return len(tbl.rows) == 1 && len(meta.rows) == 1
	}, time.Second, 10*time.Millisecond)
}

// TestGzipEncapsulatedConnInsertsRow exercises a client that compresses its
// whole stream with gzip and announces it via the `encapsulation: gzip\n`
// preamble (spec.md §4.4/§4.7, written by sink.Compressed.flush), confirming
// the server transparently decodes it ahead of header parsing.
func TestGzipEncapsulatedConnInsertsRow(t *testing.T) {
	a := newFakeAdapter()
	addr, stop := startTestServer(t, a)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	payload := "protocol: 5\ndomain: exp3\nsender-id: node0\napp-name: app\ncontent: text\nstart-time: 1000\nschema: 1 sine v:double\n\n" +
		"1.5\t1\t0\t42\n"

	member, err := compress.NewGzipCompressor().Compress([]byte(payload))
	require.NoError(t, err)

	_, err = conn.Write([]byte("encapsulation: gzip\n"))
	require.NoError(t, err)
	_, err = conn.Write(member)
	require.NoError(t, err)
	conn.Close()

	require.Eventually(t, func() bool {
		db, _ := a.Open("exp3")
		fdb := db.(*fakeDB)
		fdb.mu.Lock()
		defer fdb.mu.Unlock()
		tbl, ok := fdb.tables["sine"]
		if !ok {
			return false
		}
		tbl.mu.Lock()
		defer tbl.mu.Unlock()

		return len(tbl.rows) == 1
	}, time.Second, 10*time.Millisecond)
}
