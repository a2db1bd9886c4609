// Package mp implements the Measurement Point / Measurement Stream runtime:
// per-MP locking, sample- and interval-based triggers, and the filter chain
// each stream runs before handing a row to its writer (spec.md §3, §4.5).
package mp

import (
	"sync"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

// Point is a named schema plus runtime state: a mutex, an active flag, and
// the list of streams bound to it (spec.md §3 "Measurement Point").
//
// I1: active, and every attached Stream's filter state, are mutated only
// while mu is held.
type Point struct {
	mu sync.Mutex

	Name   string
	Schema schema.Schema
	active bool
	streams []*Stream
}

func NewPoint(name string, sch schema.Schema) *Point {
	return &Point{Name: name, Schema: sch}
}

// Bind attaches a new Stream to this Point, usable up until Start.
func (p *Point) Bind(s *Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.point = p
	p.streams = append(p.streams, s)
}

// Start marks the Point active and launches the timer goroutine for every
// interval-based stream bound to it.
func (p *Point) Start() {
	p.mu.Lock()
	p.active = true
	streams := append([]*Stream(nil), p.streams...)
	p.mu.Unlock()

	for _, s := range streams {
		if s.Interval > 0 {
			s.startTimer()
		}
	}
}

// Active reports whether the Point has been started and not yet closed.
func (p *Point) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

// Close marks the Point inactive and signals every interval-based stream's
// timer goroutine to exit (the Design Note "MP mutex + timer thread cycle":
// "Shutdown is a flag + broadcast").
func (p *Point) Close() {
	p.mu.Lock()
	p.active = false
	streams := append([]*Stream(nil), p.streams...)
	p.mu.Unlock()

	for _, s := range streams {
		s.stopTimer()
	}
}

// Inject pushes one sample into every stream bound to this Point. Each
// stream independently decides, under the Point's mutex, whether the sample
// closes its window and should be emitted.
func (p *Point) Inject(values []value.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return errs.ErrMPNotActive
	}

	for _, s := range p.streams {
		if err := s.inject(values); err != nil {
			return err
		}
	}

	return nil
}
