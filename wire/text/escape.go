package text

import (
	"fmt"
	"strings"
)

// escapeString backslash-escapes a string field for the text data line: `\\`, `\t`,
// `\n`, `\r`, and any other byte outside printable ASCII as `\xHH` (spec.md §4.3).
func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&b, `\x%02X`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}

	return b.String()
}

// unescapeString reverses escapeString.
func unescapeString(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(s) {
			return "", errBadEscape
		}

		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'x':
			if i+2 >= len(s) {
				return "", errBadEscape
			}
			var v byte
			_, err := fmt.Sscanf(s[i+1:i+3], "%02x", &v)
			if err != nil {
				return "", errBadEscape
			}
			b.WriteByte(v)
			i += 2
		default:
			return "", errBadEscape
		}
	}

	return b.String(), nil
}
