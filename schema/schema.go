// Package schema models an OML schema: a named, ordered list of (field-name,
// value-kind) pairs bound to a stream index (spec.md §3).
package schema

import "github.com/mytestbed/oml/value"

// Field is one column of a Schema.
type Field struct {
	Name string
	Kind value.Kind
}

// Schema is a named, ordered field list bound to a stream index.
//
// Index 0 is reserved for the session-metadata stream (see Metadata below); any
// other index is assigned by the sender, either in the session header or via a
// schema-0 mid-stream redeclaration (protocol >= 4, spec.md §3).
type Schema struct {
	Index  int
	Name   string
	Fields []Field
}

// MetadataIndex is the reserved stream index for session metadata tuples.
const MetadataIndex = 0

// Metadata is the fixed schema of stream 0: (subject, key, value), all strings.
var Metadata = Schema{
	Index: MetadataIndex,
	Name:  "_experiment_metadata",
	Fields: []Field{
		{Name: "subject", Kind: value.KindString},
		{Name: "key", Kind: value.KindString},
		{Name: "value", Kind: value.KindString},
	},
}

// FieldIndex returns the position of name in s's field list, or -1 if absent.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// Clone returns a deep copy of s so that callers can mutate the field list without
// affecting shared instances (e.g. a connection's index 0 before a redeclaration).
func (s *Schema) Clone() *Schema {
	out := &Schema{Index: s.Index, Name: s.Name, Fields: make([]Field, len(s.Fields))}
	copy(out.Fields, s.Fields)

	return out
}

// Table is a per-connection, per-client index-to-schema map (spec.md §3 "Server-side
// connection", Design Note "Dynamic schema installation"): an array indexed by
// stream id, grown on demand, mutated only by the single connection goroutine that
// owns it.
type Table struct {
	schemas []*Schema
}

// NewTable returns an empty Table pre-seeded with the reserved metadata schema at
// index 0.
func NewTable() *Table {
	t := &Table{}
	t.Set(&Metadata)

	return t
}

// Set installs s at s.Index, growing the backing array if necessary. Re-declaring an
// index replaces the schema for subsequent tuples on that index (spec.md I3).
func (t *Table) Set(s *Schema) {
	if s.Index >= len(t.schemas) {
		grown := make([]*Schema, s.Index+1)
		copy(grown, t.schemas)
		t.schemas = grown
	}
	t.schemas[s.Index] = s
}

// Get returns the schema installed at index, or nil if none has been declared.
func (t *Table) Get(index int) *Schema {
	if index < 0 || index >= len(t.schemas) {
		return nil
	}

	return t.schemas[index]
}

// All returns every schema currently installed, in index order.
func (t *Table) All() []*Schema {
	out := make([]*Schema, 0, len(t.schemas))
	for _, s := range t.schemas {
		if s != nil {
			out = append(out, s)
		}
	}

	return out
}
