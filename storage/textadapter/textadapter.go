// Package textadapter is the plain-text reference storage.Adapter: one
// directory per domain, one tab-separated append-only file per table
// (spec.md §4.9 "a second, simpler adapter keeps the on-disk format
// human-readable").
package textadapter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/storage"
	"github.com/mytestbed/oml/value"
)

// Adapter is the plain-text storage.Adapter.
type Adapter struct {
	dir string

	mu   sync.Mutex
	dbs  map[string]*textDB
}

// textDB is the per-domain handle returned as a storage.DB.
type textDB struct {
	domainDir string

	mu      sync.Mutex
	tables  map[string]*textTable
	senders map[string]int
	nextID  int
}

// textTable is the per-domain handle returned as a storage.Table.
type textTable struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	fields []schema.Field
}

var _ storage.Adapter = (*Adapter)(nil)

// New returns an Adapter that keeps one directory per domain under dir.
func New(dir string) *Adapter {
	return &Adapter{dir: dir, dbs: make(map[string]*textDB)}
}

func (a *Adapter) Open(domain string) (storage.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if db, ok := a.dbs[domain]; ok {
		return db, nil
	}

	domainDir := filepath.Join(a.dir, domain)
	if err := os.MkdirAll(domainDir, 0o755); err != nil {
		return nil, fmt.Errorf("textadapter: mkdir %s: %w", domainDir, err)
	}

	db := &textDB{
		domainDir: domainDir,
		tables:    make(map[string]*textTable),
		senders:   make(map[string]int),
		nextID:    1,
	}
	a.dbs[domain] = db

	return db, nil
}

// CreateTable opens (creating if absent) the append-only file backing s and
// writes a header comment line naming its columns, the first time the file
// is created.
func (a *Adapter) CreateTable(db storage.DB, s *schema.Schema) (storage.Table, error) {
	tdb := db.(*textDB)
	tdb.mu.Lock()
	defer tdb.mu.Unlock()

	if t, ok := tdb.tables[s.Name]; ok {
		return t, nil
	}

	path := filepath.Join(tdb.domainDir, s.Name+".tsv")
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("textadapter: open %s: %w", path, err)
	}
	w := bufio.NewWriter(f)

	if isNew {
		cols := []string{"oml_sender_id", "oml_seq", "oml_ts_client", "oml_ts_server"}
		for _, fld := range s.Fields {
			cols = append(cols, fld.Name)
		}
		if _, err := fmt.Fprintf(w, "# %s\n", strings.Join(cols, "\t")); err != nil {
			return nil, err
		}
		if err := w.Flush(); err != nil {
			return nil, err
		}
	}

	t := &textTable{file: f, writer: w, fields: s.Fields}
	tdb.tables[s.Name] = t

	return t, nil
}

func (a *Adapter) Insert(db storage.DB, tbl storage.Table, senderID int, seq int64, tsClient, tsServer float64, vals []value.Value) error {
	t := tbl.(*textTable)
	t.mu.Lock()
	defer t.mu.Unlock()

	cols := make([]string, 0, 4+len(vals))
	cols = append(cols,
		strconv.Itoa(senderID),
		strconv.FormatInt(seq, 10),
		strconv.FormatFloat(tsClient, 'f', -1, 64),
		strconv.FormatFloat(tsServer, 'f', -1, 64),
	)
	for _, v := range vals {
		cols = append(cols, formatValue(v))
	}

	if _, err := t.writer.WriteString(strings.Join(cols, "\t") + "\n"); err != nil {
		return fmt.Errorf("textadapter: write row: %w", err)
	}

	return t.writer.Flush()
}

func formatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return escapeTab(v.String())
	case value.KindBlob:
		return fmt.Sprintf("%x", v.Blob())
	case value.KindBool:
		return strconv.FormatBool(v.Bool())
	case value.KindGuid:
		return strconv.FormatUint(uint64(v.Guid()), 10)
	case value.KindInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case value.KindUInt32:
		return strconv.FormatUint(uint64(v.UInt32()), 10)
	case value.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case value.KindUInt64:
		return strconv.FormatUint(v.UInt64(), 10)
	default:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	}
}

func escapeTab(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\n", `\n`)

	return s
}

func (a *Adapter) AddSender(db storage.DB, name string) (int, error) {
	tdb := db.(*textDB)
	tdb.mu.Lock()
	defer tdb.mu.Unlock()

	if id, ok := tdb.senders[name]; ok {
		return id, nil
	}

	id := tdb.nextID
	tdb.nextID++
	tdb.senders[name] = id

	return id, nil
}

func (a *Adapter) Release(db storage.DB) error {
	tdb := db.(*textDB)
	tdb.mu.Lock()
	defer tdb.mu.Unlock()

	var firstErr error
	for _, t := range tdb.tables {
		t.mu.Lock()
		if err := t.writer.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := t.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.mu.Unlock()
	}

	return firstErr
}
