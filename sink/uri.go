package sink

import (
	"fmt"
	"strings"

	"github.com/mytestbed/oml/compress"
	"github.com/mytestbed/oml/errs"
)

// codecPrefixes maps a URI scheme prefix to the compress.Algorithm it
// selects (spec.md §9: "optional gzip+/zlib+/zstd+/lz4+ prefix").
var codecPrefixes = map[string]compress.Algorithm{
	"gzip+": compress.Gzip,
	"zlib+": compress.Zlib,
	"zstd+": compress.Zstd,
	"lz4+":  compress.LZ4,
}

// ParseURI builds a Sink from one of the forms spec.md §4.7/§9 lock down:
// "file:PATH", "flush:PATH", "tcp://HOST:PORT", "udp://HOST:PORT", each
// optionally preceded by a compression prefix, plus the "file://X" back-compat
// alias for "file:X". Any other form is rejected rather than guessed, per
// the Open Question in spec.md §9.
func ParseURI(uri string) (Sink, error) {
	rest := uri
	alg := compress.None
	for prefix, a := range codecPrefixes {
		if strings.HasPrefix(rest, prefix) {
			alg = a
			rest = rest[len(prefix):]
			break
		}
	}

	base, err := parseBase(rest)
	if err != nil {
		return nil, err
	}

	if alg == compress.None {
		return base, nil
	}

	return NewCompressed(base, alg)
}

func parseBase(rest string) (Sink, error) {
	switch {
	case strings.HasPrefix(rest, "file://"):
		return NewFile(rest[len("file://"):], false)
	case strings.HasPrefix(rest, "file:"):
		return NewFile(rest[len("file:"):], false)
	case strings.HasPrefix(rest, "flush:"):
		return NewFile(rest[len("flush:"):], true)
	case strings.HasPrefix(rest, "tcp://"):
		return NewNet("tcp", rest[len("tcp://"):])
	case strings.HasPrefix(rest, "udp://"):
		return NewNet("udp", rest[len("udp://"):])
	default:
		return nil, fmt.Errorf("sink: unrecognized URI %q: %w", rest, errs.ErrUnknownScheme)
	}
}
