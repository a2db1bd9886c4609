// Package storage defines the backend adapter interface the server's client
// handler inserts rows through (spec.md §4.9).
package storage

import (
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

// DB is an opaque handle to one open domain/experiment database.
type DB any

// Table is an opaque handle to one created table within a DB.
type Table any

// Adapter abstracts the measurement storage backend. Open is called once per
// domain the server sees; Insert is called from the connection goroutine
// handling that domain's data and must be safe for concurrent use across
// connections sharing one domain (spec.md §5: "the storage adapter is
// called from the connection thread and must be thread-safe if the backend
// is shared").
type Adapter interface {
	Open(domain string) (DB, error)
	CreateTable(db DB, s *schema.Schema) (Table, error)
	Insert(db DB, t Table, senderID int, seq int64, tsClient, tsServer float64, vals []value.Value) error
	AddSender(db DB, name string) (int, error)
	Release(db DB) error
}
