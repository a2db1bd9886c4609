// Package sink implements the OMSP output destinations a writer streams rows
// to: files, TCP/UDP sockets, and compressed wrappers around either
// (spec.md §4.7, §9 URI forms).
package sink

// Sink is one destination a writer.Writer streams encoded rows to.
//
// Write is the normal per-row path and may be buffered by the
// implementation's flush policy. WriteImmediate bypasses that policy —
// used for session headers, which must reach the peer before any buffered
// row that follows them.
type Sink interface {
	Write(data []byte) error
	WriteImmediate(data []byte) error
	Close() error

	// HeaderSent reports whether the session header has already been
	// written to this sink, so a writer.Writer knows whether to emit it
	// again after a reconnect (Net sinks replay the header on every new
	// connection; spec.md §4.7 "header replay").
	HeaderSent() bool
	SetHeaderSent(bool)
}

// headerState is embedded by every Sink implementation to provide
// HeaderSent/SetHeaderSent without repeating the bookkeeping.
type headerState struct {
	sent bool
}

func (h *headerState) HeaderSent() bool     { return h.sent }
func (h *headerState) SetHeaderSent(v bool) { h.sent = v }
