// Package filter implements the per-field sample-window reducers a Measurement
// Stream applies before emitting a row (spec.md §4.5).
package filter

import (
	"fmt"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/value"
)

// Filter reduces a window of samples for one field into a single output value.
type Filter interface {
	// Process reduces in (one value per sample in the window, in arrival order)
	// to a single output value.
	Process(in []value.Value) (value.Value, error)
}

// Factory constructs a new Filter instance for one field.
type Factory func() Filter

var registry = map[string]Factory{
	"first": func() Filter { return firstFilter{} },
	"avg":   func() Filter { return &avgFilter{} },
}

// Lookup returns the filter factory registered under name, or an error if name is
// unknown (spec.md §4.5: "Filter definitions are keyed by name; unknown names fail
// at configuration time").
func Lookup(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("filter %q: %w", name, errs.ErrUnknownFilter)
	}

	return f, nil
}

// DefaultFor returns the name of the default filter for a field, per spec.md §4.5:
// "first" for string fields; "avg" for numeric fields when multiple samples per
// window are expected, otherwise "first".
func DefaultFor(kind value.Kind, multiSample bool) string {
	if kind == value.KindString || !multiSample {
		return "first"
	}
	if numeric(kind) {
		return "avg"
	}

	return "first"
}

func numeric(k value.Kind) bool {
	switch k {
	case value.KindDouble, value.KindInt32, value.KindUInt32, value.KindInt64, value.KindUInt64:
		return true
	default:
		return false
	}
}
