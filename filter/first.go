package filter

import (
	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/value"
)

// firstFilter emits the first sample of the window, unchanged (spec.md §4.5).
type firstFilter struct{}

func (firstFilter) Process(in []value.Value) (value.Value, error) {
	if len(in) == 0 {
		return value.Value{}, errs.ErrNoSamples
	}

	return in[0], nil
}
