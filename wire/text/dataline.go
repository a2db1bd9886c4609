package text

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

var errBadEscape = errs.ErrBadEscape

// FormatDataLine renders one row as `timestamp\tstream\tseqno\tval1\tval2…\n`
// (spec.md §4.3).
func FormatDataLine(ts float64, stream int, seq int64, vals []value.Value) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%v\t%d\t%d", ts, stream, seq)

	for _, v := range vals {
		b.WriteByte('\t')
		s, err := formatField(v)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteByte('\n')

	return b.String(), nil
}

func formatField(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindString:
		return escapeString(v.String()), nil
	case value.KindBlob:
		return base64.StdEncoding.EncodeToString(v.Blob()), nil
	case value.KindBool:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case value.KindDouble:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64), nil
	case value.KindInt32:
		return strconv.FormatInt(int64(v.Int32()), 10), nil
	case value.KindUInt32:
		return strconv.FormatUint(uint64(v.UInt32()), 10), nil
	case value.KindInt64:
		return strconv.FormatInt(v.Int64(), 10), nil
	case value.KindUInt64:
		return strconv.FormatUint(v.UInt64(), 10), nil
	case value.KindGuid:
		return strconv.FormatUint(uint64(v.Guid()), 10), nil
	default:
		return "", errs.ErrUnknownKind
	}
}

// PeekStream extracts just the stream index from a raw data line, without
// validating or decoding the value fields. The server uses this to look up which
// schema to parse the rest of the line against before calling ParseDataLine
// (spec.md §4.8).
func PeekStream(line string) (int, error) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("data line %q: %w", line, errs.ErrMalformedLine)
	}
	stream, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("data line stream %q: %w", parts[1], errs.ErrMalformedLine)
	}

	return stream, nil
}

// ParsedLine is one successfully parsed text data line.
type ParsedLine struct {
	Timestamp float64
	Stream    int
	Seq       int64
	Values    []value.Value
}

// ParseDataLine parses one line (without its trailing '\n') against s's field list.
// `long`/`integer`/`float`/`real` are accepted only through the schema's declared
// field kind, not re-derived per value.
func ParseDataLine(line string, s *schema.Schema) (*ParsedLine, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 {
		return nil, fmt.Errorf("data line %q: %w", line, errs.ErrMalformedLine)
	}

	ts, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("data line timestamp %q: %w", parts[0], errs.ErrMalformedLine)
	}
	stream, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("data line stream %q: %w", parts[1], errs.ErrMalformedLine)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("data line seqno %q: %w", parts[2], errs.ErrMalformedLine)
	}

	raw := parts[3:]
	if s != nil && len(raw) != len(s.Fields) {
		return nil, fmt.Errorf("data line %q: %w", line, errs.ErrFieldCountMismatch)
	}

	vals := make([]value.Value, len(raw))
	for i, f := range raw {
		var kind value.Kind
		if s != nil {
			kind = s.Fields[i].Kind
		} else {
			kind = value.KindString
		}

		v, err := parseField(f, kind)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return &ParsedLine{Timestamp: ts, Stream: stream, Seq: seq, Values: vals}, nil
}

func parseField(raw string, kind value.Kind) (value.Value, error) {
	switch kind {
	case value.KindString:
		s, err := unescapeString(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(s), nil
	case value.KindBlob:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return value.Value{}, fmt.Errorf("blob field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewBlob(b), nil
	case value.KindBool:
		switch raw {
		case "true":
			return value.NewBool(true), nil
		case "false":
			return value.NewBool(false), nil
		default:
			return value.Value{}, fmt.Errorf("bool field %q: %w", raw, errs.ErrMalformedLine)
		}
	case value.KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("double field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewDouble(f), nil
	case value.KindInt32:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("int32 field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewInt32(value.ClampInt32(n)), nil
	case value.KindUInt32:
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return value.Value{}, fmt.Errorf("uint32 field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewUInt32(uint32(n)), nil
	case value.KindInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("int64 field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewInt64(n), nil
	case value.KindUInt64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("uint64 field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewUInt64(n), nil
	case value.KindGuid:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("guid field %q: %w", raw, errs.ErrMalformedLine)
		}
		return value.NewGuid(value.Guid(n)), nil
	default:
		return value.Value{}, errs.ErrUnknownKind
	}
}
