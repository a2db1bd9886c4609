// Package sqladapter is the SQL reference storage.Adapter: one sqlite
// database file per domain, one table per schema, one prepared insert
// statement per table reused for every row (spec.md §4.9).
package sqladapter

import (
	"fmt"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/storage"
	"github.com/mytestbed/oml/value"
)

// metadataTable is the well-known table stream-0 tuples outside a schema
// redeclaration are inserted into (spec.md §4.8).
const metadataTable = "_experiment_metadata"

// sendersTable maps sender names to the ids the schema's oml_sender_id
// column stores (spec.md §6 "_senders(id, name)").
const sendersTable = "_senders"

// Adapter is the SQL storage.Adapter backed by sqlite.
type Adapter struct {
	dir string

	mu  sync.Mutex
	dbs map[string]*sqlDB
}

// sqlDB is the per-domain handle returned as a storage.DB.
type sqlDB struct {
	mu    sync.Mutex
	sqlx  *sqlx.DB
	stmts map[string]*sqlx.Stmt // table name -> prepared insert statement
}

var _ storage.Adapter = (*Adapter)(nil)

// New returns an Adapter that keeps one sqlite file per domain under dir.
func New(dir string) *Adapter {
	return &Adapter{dir: dir, dbs: make(map[string]*sqlDB)}
}

func (a *Adapter) Open(domain string) (storage.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if db, ok := a.dbs[domain]; ok {
		return db, nil
	}

	path := filepath.Join(a.dir, domain+".sqlite")
	conn, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqladapter: open %s: %w", path, err)
	}

	db := &sqlDB{sqlx: conn, stmts: make(map[string]*sqlx.Stmt)}
	if err := createBookkeepingTables(conn); err != nil {
		return nil, err
	}

	a.dbs[domain] = db

	return db, nil
}

func createBookkeepingTables(conn *sqlx.DB) error {
	if _, err := conn.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT UNIQUE NOT NULL)`,
		sendersTable)); err != nil {
		return fmt.Errorf("sqladapter: create %s: %w", sendersTable, err)
	}
	if _, err := conn.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (subject TEXT, key TEXT, value TEXT)`,
		metadataTable)); err != nil {
		return fmt.Errorf("sqladapter: create %s: %w", metadataTable, err)
	}

	return nil
}

// sqlType maps a value.Kind to the SQL column type the reference adapter
// uses (spec.md §4.9: "maps value kinds to a SQL type via a fixed table").
func sqlType(k value.Kind) (string, error) {
	switch k {
	case value.KindDouble:
		return "DOUBLE", nil
	case value.KindInt32, value.KindUInt32, value.KindInt64, value.KindUInt64:
		return "BIGINT", nil
	case value.KindString:
		return "TEXT", nil
	case value.KindBlob:
		return "BLOB", nil
	case value.KindGuid:
		return "BIGINT", nil
	case value.KindBool:
		return "BOOLEAN", nil
	default:
		return "", errs.ErrUnknownKind
	}
}

// CreateTable creates s's backing table (columns per spec.md §6
// "Persistence layout": oml_sender_id, oml_seq, oml_ts_client, oml_ts_server,
// then the schema's own fields) and prepares its insert statement.
func (a *Adapter) CreateTable(db storage.DB, s *schema.Schema) (storage.Table, error) {
	sdb := db.(*sqlDB)
	sdb.mu.Lock()
	defer sdb.mu.Unlock()

	table := s.Name
	if _, ok := sdb.stmts[table]; ok {
		return table, nil
	}

	cols := []string{
		"oml_sender_id INTEGER",
		"oml_seq INTEGER",
		"oml_ts_client DOUBLE",
		"oml_ts_server DOUBLE",
	}
	colNames := []string{"oml_sender_id", "oml_seq", "oml_ts_client", "oml_ts_server"}
	for _, f := range s.Fields {
		t, err := sqlType(f.Kind)
		if err != nil {
			return nil, err
		}
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, t))
		colNames = append(colNames, f.Name)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, joinComma(cols))
	if _, err := sdb.sqlx.Exec(ddl); err != nil {
		return nil, fmt.Errorf("sqladapter: create table %s: %w", table, err)
	}

	placeholders := make([]string, len(colNames))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL, _, err := sq.Insert(table).Columns(colNames...).Values(toAnySlice(placeholders)...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqladapter: build insert for %s: %w", table, err)
	}

	stmt, err := sdb.sqlx.Preparex(insertSQL)
	if err != nil {
		return nil, fmt.Errorf("sqladapter: prepare insert for %s: %w", table, err)
	}
	sdb.stmts[table] = stmt

	return table, nil
}

func (a *Adapter) Insert(db storage.DB, t storage.Table, senderID int, seq int64, tsClient, tsServer float64, vals []value.Value) error {
	sdb := db.(*sqlDB)
	table := t.(string)

	sdb.mu.Lock()
	stmt, ok := sdb.stmts[table]
	sdb.mu.Unlock()
	if !ok {
		return fmt.Errorf("sqladapter: table %s has no prepared statement", table)
	}

	args := make([]any, 0, 4+len(vals))
	args = append(args, senderID, seq, tsClient, tsServer)
	for _, v := range vals {
		args = append(args, columnValue(v))
	}

	// No explicit transaction: durability policy is the backend's choice
	// (spec.md §4.9 last sentence).
	if _, err := stmt.Exec(args...); err != nil {
		return fmt.Errorf("sqladapter: insert into %s: %w", table, err)
	}

	return nil
}

func columnValue(v value.Value) any {
	switch v.Kind() {
	case value.KindString:
		return v.String()
	case value.KindBlob:
		return v.Blob()
	case value.KindBool:
		return v.Bool()
	case value.KindDouble:
		return v.Float64()
	case value.KindGuid:
		return uint64(v.Guid())
	default:
		return v.Float64()
	}
}

func (a *Adapter) AddSender(db storage.DB, name string) (int, error) {
	sdb := db.(*sqlDB)
	sdb.mu.Lock()
	defer sdb.mu.Unlock()

	insertSQL, args, err := sq.Insert(sendersTable).Columns("name").Values(name).ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := sdb.sqlx.Exec(insertSQL+" ON CONFLICT(name) DO NOTHING", args...); err != nil {
		return 0, fmt.Errorf("sqladapter: add sender %s: %w", name, err)
	}

	var id int
	if err := sdb.sqlx.Get(&id, fmt.Sprintf("SELECT id FROM %s WHERE name = ?", sendersTable), name); err != nil {
		return 0, fmt.Errorf("sqladapter: lookup sender %s: %w", name, err)
	}

	return id, nil
}

func (a *Adapter) Release(db storage.DB) error {
	sdb := db.(*sqlDB)
	sdb.mu.Lock()
	defer sdb.mu.Unlock()

	for _, stmt := range sdb.stmts {
		_ = stmt.Close()
	}

	return sdb.sqlx.Close()
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}

	return out
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}
