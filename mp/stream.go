package mp

import (
	"sync"
	"time"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/filter"
	"github.com/mytestbed/oml/value"
)

// Emitter is the subset of writer.Writer a Stream needs; kept narrow here so
// mp does not have to depend on the sink/wire packages a writer pulls in.
type Emitter interface {
	Emit(streamIndex int, seq int32, ts float64, values []value.Value) error
}

// Stream binds a Point to a Writer with a sampling rule and filter chain
// (spec.md §3 "Measurement Stream").
//
// All mutable state below is guarded by the owning Point's mutex (I1); a
// Stream never locks on its own.
type Stream struct {
	point *Point

	StreamIndex int
	TableName   string
	Threshold   int           // sample-based trigger: emit every Threshold samples
	Interval    time.Duration // time-based trigger: emit every Interval
	Filters     []filter.Filter
	Writer      Emitter

	seq     int32
	window  [][]value.Value // window[field][sample]
	started time.Time

	stopCh chan struct{}
	stopWG sync.WaitGroup
}

// NewStream constructs a Stream bound to no Point yet; call Point.Bind to
// attach it.
func NewStream(streamIndex int, tableName string, threshold int, interval time.Duration, filters []filter.Filter, w Emitter) *Stream {
	return &Stream{
		StreamIndex: streamIndex,
		TableName:   tableName,
		Threshold:   threshold,
		Interval:    interval,
		Filters:     filters,
		Writer:      w,
	}
}

// inject pushes one sample's field values into the window. Called with the
// owning Point's mutex held.
func (s *Stream) inject(values []value.Value) error {
	if len(s.Filters) != len(values) {
		return errs.ErrFieldCountMismatch
	}

	if s.window == nil {
		s.window = make([][]value.Value, len(values))
	}
	for i, v := range values {
		s.window[i] = append(s.window[i], v)
	}

	if s.Interval > 0 {
		// Time-based: the timer goroutine closes the window; injection only
		// accumulates samples.
		return nil
	}

	// Sample-based: emit once Threshold samples have accumulated.
	if s.Threshold > 0 && len(s.window[0]) >= s.Threshold {
		return s.emitLocked()
	}

	return nil
}

// emitLocked runs every field's filter over its window, emits the resulting
// row, and resets the window. Called with the owning Point's mutex held.
func (s *Stream) emitLocked() error {
	if len(s.window) == 0 {
		return nil
	}

	out := make([]value.Value, len(s.window))
	for i, samples := range s.window {
		v, err := s.Filters[i].Process(samples)
		if err != nil {
			return err
		}
		out[i] = v
	}

	ts := float64(time.Now().UnixNano()) / 1e9
	if err := s.Writer.Emit(s.StreamIndex, s.seq, ts, out); err != nil {
		return err
	}
	s.seq++ // I2: non-decreasing sequence number within a session

	for i := range s.window {
		s.window[i] = s.window[i][:0]
	}

	return nil
}

// startTimer launches the goroutine that closes this stream's window every
// Interval, per the Design Note "MP mutex + timer thread cycle": "each
// time-based stream is a task sleeping on a timer, waking to run filters
// under that lock."
func (s *Stream) startTimer() {
	s.stopCh = make(chan struct{})
	s.stopWG.Add(1)

	go func() {
		defer s.stopWG.Done()
		t := time.NewTicker(s.Interval)
		defer t.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-t.C:
				s.point.mu.Lock()
				active := s.point.active
				var err error
				if active && len(s.window) > 0 && len(s.window[0]) > 0 {
					err = s.emitLocked()
				}
				s.point.mu.Unlock()
				if err != nil {
					return
				}
				if !active {
					return
				}
			}
		}
	}()
}

// stopTimer signals the timer goroutine to exit and waits for it.
func (s *Stream) stopTimer() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.stopWG.Wait()
}
