package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/header"
	"github.com/mytestbed/oml/schema"
)

// Content names the `content:` header value.
type Content string

const (
	ContentText   Content = "text"
	ContentBinary Content = "binary"
)

// SessionHeader is the block of header lines every OML session opens with
// (spec.md §3 "Session", §4.6).
type SessionHeader struct {
	Protocol   int
	Domain     string
	StartTime  int64 // UNIX seconds
	SenderID   string
	AppName    string
	Schemas    []*schema.Schema
	Content    Content
}

// WriteTo emits the session header block followed by a blank line (spec.md §4.6).
func (h *SessionHeader) WriteTo(w io.Writer) error {
	lines := [][2]string{
		{"protocol", strconv.Itoa(h.Protocol)},
		{"domain", h.Domain},
		{"start-time", strconv.FormatInt(h.StartTime, 10)},
		{"sender-id", h.SenderID},
		{"app-name", h.AppName},
	}
	for _, kv := range lines {
		if err := header.WriteLine(w, kv[0], kv[1]); err != nil {
			return err
		}
	}
	for _, s := range h.Schemas {
		line, err := FormatSchemaLine(s)
		if err != nil {
			return err
		}
		if err := header.WriteLine(w, "schema", line); err != nil {
			return err
		}
	}
	if err := header.WriteLine(w, "content", string(h.Content)); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\n")

	return err
}

// ParseSessionHeader reads header lines from r up to the blank line and validates
// that `domain` and `content` are present (spec.md §4.8 "Configure").
func ParseSessionHeader(r *bufio.Reader, warn header.UnknownKeyWarning) (*SessionHeader, error) {
	t, err := header.Parse(r, warn)
	if err != nil {
		return nil, err
	}

	h := &SessionHeader{}

	if p, ok := t.Get("protocol"); ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("protocol header %q: %w", p, errs.ErrMalformedHeader)
		}
		h.Protocol = n
	}

	domain, ok := t.Get("domain")
	if !ok {
		return nil, errs.ErrMissingHeader
	}
	h.Domain = domain

	if st, ok := t.Get("start-time"); ok {
		n, err := strconv.ParseInt(st, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("start-time header %q: %w", st, errs.ErrMalformedHeader)
		}
		h.StartTime = n
	}

	h.SenderID, _ = t.Get("sender-id")
	h.AppName, _ = t.Get("app-name")

	content, ok := t.Get("content")
	if !ok {
		return nil, errs.ErrMissingHeader
	}
	h.Content = Content(content)

	for _, line := range t.All("schema") {
		s, err := ParseSchemaLine(line)
		if err != nil {
			return nil, err
		}
		h.Schemas = append(h.Schemas, s)
	}

	return h, nil
}
