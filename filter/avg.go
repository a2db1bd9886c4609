package filter

import (
	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/value"
)

// avgFilter emits the mean of the window, for numeric fields only (spec.md §4.5).
// It fails at configuration time (the first Process call) if given a non-numeric
// field, matching "unknown names fail at configuration time" for filters applied
// to the wrong kind of field.
type avgFilter struct{}

func (f *avgFilter) Process(in []value.Value) (value.Value, error) {
	if len(in) == 0 {
		return value.Value{}, errs.ErrNoSamples
	}
	if !in[0].IsNumeric() {
		return value.Value{}, errs.ErrFilterNotNumeric
	}

	var sum float64
	for _, v := range in {
		sum += v.Float64()
	}

	return value.NewDouble(sum / float64(len(in))), nil
}
