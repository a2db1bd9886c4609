// Package header parses the `key: value` line blocks that open every OML session
// (spec.md §3 "Header parser", §4.3), shared by the text codec's header emitter and
// the server's Header state.
package header

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mytestbed/oml/errs"
)

// legacyAliases maps a legacy header key to its canonical replacement
// (spec.md §4.3, Design Note "Legacy aliases").
var legacyAliases = map[string]string{
	"experiment-id": "domain",
	"start_time":    "start-time",
}

// Table is an ordered key/value map: insertion order is preserved so that multiple
// `schema:` lines (one per declared stream) come back out in the order they were
// read.
type Table struct {
	keys   []string
	values map[string][]string
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{values: make(map[string][]string)}
}

// Add appends a value for key, normalizing legacy key aliases to their canonical form.
func (t *Table) Add(key, value string) {
	if canon, ok := legacyAliases[key]; ok {
		key = canon
	}
	if _, seen := t.values[key]; !seen {
		t.keys = append(t.keys, key)
	}
	t.values[key] = append(t.values[key], value)
}

// Get returns the first value for key, if any.
func (t *Table) Get(key string) (string, bool) {
	vs, ok := t.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}

	return vs[0], true
}

// All returns every value recorded for key, in the order they were added (used for
// repeated `schema:` lines).
func (t *Table) All(key string) []string {
	return t.values[key]
}

// Keys returns the canonical keys seen, in first-insertion order.
func (t *Table) Keys() []string {
	return t.keys
}

// recognizedKeys is used only to decide whether to warn about an unknown key;
// unknown keys are otherwise accepted and ignored (spec.md §4.3).
var recognizedKeys = map[string]bool{
	"protocol": true, "domain": true, "start-time": true,
	"sender-id": true, "app-name": true, "schema": true, "content": true,
}

// UnknownKeyWarning is invoked for every header key that is not recognized, so
// callers can log a warning without this package taking a logging dependency.
type UnknownKeyWarning func(key string)

// Parse reads `key: value` lines from r until a blank line, returning the resulting
// Table. Keys are matched case-sensitively (spec.md §4.3). If warn is non-nil it is
// called once per line carrying an unrecognized key.
func Parse(r *bufio.Reader, warn UnknownKeyWarning) (*Table, error) {
	t := NewTable()

	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		trimmed := strings.TrimRight(line, "\r\n")

		if trimmed == "" {
			return t, nil
		}

		idx := strings.Index(trimmed, ":")
		if idx < 0 {
			return nil, fmt.Errorf("header line %q: %w", trimmed, errs.ErrMalformedHeader)
		}

		key := trimmed[:idx]
		val := strings.TrimSpace(trimmed[idx+1:])

		if !recognizedKeys[key] && warn != nil {
			warn(key)
		}

		t.Add(key, val)

		if err == io.EOF {
			return t, nil
		}
	}
}

// WriteLine formats one `key: value\n` header line.
func WriteLine(w io.Writer, key, value string) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", key, value)
	return err
}
