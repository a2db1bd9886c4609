package sink

import (
	"bufio"
	"fmt"
	"os"
)

// File writes rows to a path on disk, or to stdout when path is "-" or
// "stdout" (spec.md §4.7 "File sink").
type File struct {
	headerState

	f        *os.File
	w        *bufio.Writer
	flushAll bool // true for the "flush:" URI form: flush after every write
}

var _ Sink = (*File)(nil)

// NewFile opens path for append, creating it if necessary. flushEveryWrite
// corresponds to the "flush:" URI prefix (spec.md §9).
func NewFile(path string, flushEveryWrite bool) (*File, error) {
	if path == "-" || path == "stdout" {
		return &File{f: os.Stdout, w: bufio.NewWriter(os.Stdout), flushAll: flushEveryWrite}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}

	return &File{f: f, w: bufio.NewWriter(f), flushAll: flushEveryWrite}, nil
}

func (s *File) Write(data []byte) error {
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("sink: file write: %w", err)
	}
	if s.flushAll {
		return s.w.Flush()
	}

	return nil
}

// WriteImmediate always flushes, per spec.md §4.7 "write_immediate always
// calls the underlying flush".
func (s *File) WriteImmediate(data []byte) error {
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("sink: file write: %w", err)
	}

	return s.w.Flush()
}

func (s *File) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.f == os.Stdout {
		return nil
	}

	return s.f.Close()
}
