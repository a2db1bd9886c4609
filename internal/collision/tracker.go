// Package collision disambiguates the table names derived from measurement
// stream names, so that two streams that would otherwise produce the same
// name get distinct ones (spec.md §3 "Measurement Stream": "a unique table
// name derived from {app_name}_{mp_name}[_{n}]").
package collision

import "fmt"

// Tracker hands out a unique table name per base name, appending "_n" for
// the second and later registrations of the same base.
type Tracker struct {
	counts map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int)}
}

// Reserve returns the table name to use for base ("{app_name}_{mp_name}"),
// disambiguating repeats within the same session as base, base_1, base_2, ...
func (t *Tracker) Reserve(base string) string {
	n := t.counts[base]
	t.counts[base] = n + 1

	if n == 0 {
		return base
	}

	return fmt.Sprintf("%s_%d", base, n)
}

// Count returns how many names have been reserved under base so far.
func (t *Tracker) Count(base string) int {
	return t.counts[base]
}

// Reset clears all reservations, for reuse across sessions in tests.
func (t *Tracker) Reset() {
	for k := range t.counts {
		delete(t.counts, k)
	}
}
