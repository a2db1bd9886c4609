// Package client implements the OML client session: configuration, sink
// and writer setup, measurement point registration, and the
// error-out-of-band instrumentation path (spec.md §3 "Session", §6, §7).
package client

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/filter"
	"github.com/mytestbed/oml/internal/collision"
	"github.com/mytestbed/oml/internal/hash"
	"github.com/mytestbed/oml/mp"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/sink"
	"github.com/mytestbed/oml/value"
	"github.com/mytestbed/oml/writer"
)

// protocolVersion is the protocol version this client emits (spec.md §6:
// "the client emits version 5 by default").
const protocolVersion = 5

// pendingMP is a registration recorded before Start, materialized into a
// bound mp.Stream once the session's writers exist.
type pendingMP struct {
	point     *mp.Point
	threshold int
	interval  time.Duration
	filters   []filter.Filter
}

// Session is a client-side singleton binding configuration, measurement
// points, writers, and sinks together (spec.md §3 "Session").
type Session struct {
	cfg       *Config
	startTime time.Time

	mu       sync.Mutex
	started  bool
	MPs      []*mp.Point
	Writers  []*writer.Writer

	pending      []*pendingMP
	tableTracker *collision.Tracker

	instrumentation *instrumentation
}

// New builds a Session from functional options; it does not open any sinks
// yet (spec.md §6: configuration errors are fatal at startup, before
// Start).
func New(opts ...Option) (*Session, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Domain == "" {
		return nil, errs.ErrMissingDomain
	}
	if cfg.SenderID == "" {
		return nil, errs.ErrMissingSenderID
	}
	if len(cfg.URIs) == 0 {
		return nil, errs.ErrNoCollectors
	}

	return &Session{cfg: cfg, tableTracker: collision.NewTracker()}, nil
}

// RegisterMP registers a new measurement point with a sampling rule (either
// threshold-based, when interval is 0, or interval-based otherwise) and one
// filter per schema field. A config-file override for this MP's name (see
// LoadConfigFile), if any, takes precedence over threshold/interval. It
// must be called before Start (spec.md §3: "An MP is registered once after
// client init and before start").
func (s *Session) RegisterMP(name string, sch schema.Schema, threshold int, interval time.Duration, filters []filter.Filter) (*mp.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, errs.ErrAlreadyStarted
	}
	if len(filters) != len(sch.Fields) {
		return nil, errs.ErrFieldCountMismatch
	}

	if o, ok := s.cfg.Overrides[name]; ok {
		threshold, interval = o.Samples, o.Interval
	}

	point := mp.NewPoint(name, sch)
	s.MPs = append(s.MPs, point)
	s.pending = append(s.pending, &pendingMP{point: point, threshold: threshold, interval: interval, filters: filters})

	return point, nil
}

// Now returns the number of seconds elapsed since the session's declared
// start time (carried from the original client's monotonic
// experiment-relative timestamp helper; spec.md §14).
func (s *Session) Now() float64 {
	s.mu.Lock()
	start := s.startTime
	s.mu.Unlock()

	return time.Since(start).Seconds()
}

// NewGuid returns a value.Value holding a process-unique, non-zero guid,
// salted by this session's sender id, for injecting into a value.KindGuid
// measurement field (spec.md §4.1: "generate must never return 0").
func (s *Session) NewGuid() value.Value {
	return value.NewGuid(value.Guid(hash.GenerateGuid(s.cfg.SenderID, time.Now().UnixNano())))
}

// Start opens every configured sink and creates a writer for each (a writer
// sends the session headers just before its first row), binds every
// registered measurement point to a stream over those writers, and marks all
// measurement points active.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errs.ErrAlreadyStarted
	}

	s.startTime = time.Now()
	if !s.cfg.StartTime.IsZero() {
		s.startTime = s.cfg.StartTime
	}

	schemas := make([]schema.Schema, 0, len(s.MPs))
	for _, p := range s.MPs {
		schemas = append(schemas, p.Schema)
	}

	for _, uri := range s.cfg.URIs {
		sk, err := sink.ParseURI(uri)
		if err != nil {
			return fmt.Errorf("client: open sink %q: %w", uri, err)
		}

		w := writer.New(sk, writer.Binary, writer.Header{
			Protocol:  protocolVersion,
			Domain:    s.cfg.Domain,
			StartTime: s.startTime.Unix(),
			SenderID:  s.cfg.SenderID,
			AppName:   s.cfg.AppName,
			Schemas:   schemas,
		})
		s.Writers = append(s.Writers, w)
	}

	fanout := &fanoutEmitter{start: float64(s.startTime.Unix()), ws: s.Writers}
	for _, pm := range s.pending {
		table := s.tableTracker.Reserve(s.cfg.AppName + "_" + pm.point.Name)
		st := mp.NewStream(pm.point.Schema.Index, table, pm.threshold, pm.interval, pm.filters, fanout)
		pm.point.Bind(st)
	}

	for _, p := range s.MPs {
		p.Start()
	}

	s.instrumentation = newInstrumentation()
	s.started = true

	return nil
}

// Close tears down every registered measurement point and writer
// (spec.md §4.5, §5 teardown).
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return errs.ErrNotStarted
	}

	for _, p := range s.MPs {
		p.Close()
	}

	var firstErr error
	for _, w := range s.Writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.started = false

	return firstErr
}

// Inject pushes one sample into point's stream. It never returns the
// underlying error to the caller's fast path; failures are counted in the
// instrumentation MP instead (spec.md §7: "The library never propagates
// errors through the inject fast path").
func (s *Session) Inject(point *mp.Point, values []value.Value) {
	if err := point.Inject(values); err != nil {
		s.instrumentation.recordDropped()
		return
	}
	s.instrumentation.recordInjected()
}

// fanoutEmitter broadcasts a row to every writer in ws, so a single
// measurement stream can feed multiple configured sinks. All streams share
// the same writers, so mu serializes their rows; each row's UNIX timestamp is
// rebased to seconds since the declared start time.
type fanoutEmitter struct {
	mu    sync.Mutex
	start float64
	ws    []*writer.Writer
}

func (f *fanoutEmitter) Emit(streamIndex int, seq int32, ts float64, values []value.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for _, w := range f.ws {
		if err := w.Emit(streamIndex, seq, ts-f.start, values); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// instrumentation tracks the six counters of the `_client_instrumentation`
// MP (spec.md §7), updated atomically from the Inject fast path.
type instrumentation struct {
	measurementsInjected atomic.Int64
	measurementsDropped  atomic.Int64
	bytesAllocated       atomic.Int64
	bytesFreed           atomic.Int64
	bytesInUse           atomic.Int64
	bytesMax             atomic.Int64
}

func newInstrumentation() *instrumentation { return &instrumentation{} }

func (i *instrumentation) recordInjected() { i.measurementsInjected.Add(1) }
func (i *instrumentation) recordDropped()  { i.measurementsDropped.Add(1) }

func (i *instrumentation) recordAlloc(n int64) {
	i.bytesAllocated.Add(n)
	inUse := i.bytesInUse.Add(n)
	for {
		max := i.bytesMax.Load()
		if inUse <= max || i.bytesMax.CompareAndSwap(max, inUse) {
			break
		}
	}
}

func (i *instrumentation) recordFree(n int64) {
	i.bytesFreed.Add(n)
	i.bytesInUse.Add(-n)
}

// Counters returns a snapshot of the instrumentation counters, in the order
// spec.md §7 lists them.
func (s *Session) Counters() (injected, dropped, allocated, freed, inUse, max int64) {
	i := s.instrumentation
	return i.measurementsInjected.Load(), i.measurementsDropped.Load(),
		i.bytesAllocated.Load(), i.bytesFreed.Load(), i.bytesInUse.Load(), i.bytesMax.Load()
}
