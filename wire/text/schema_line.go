package text

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

// legacyTypeAliases maps legacy/alternate type names accepted on input to their
// canonical value.Kind (spec.md §4.3).
var legacyTypeAliases = map[string]value.Kind{
	"int32": value.KindInt32, "uint32": value.KindUInt32,
	"int64": value.KindInt64, "uint64": value.KindUInt64,
	"double": value.KindDouble, "string": value.KindString,
	"blob": value.KindBlob, "guid": value.KindGuid, "bool": value.KindBool,
	"long":    value.KindInt32,
	"integer": value.KindInt32,
	"float":   value.KindDouble,
	"real":    value.KindDouble,
}

// canonicalTypeName returns the wire name emitted for k (spec.md §4.3: "Output uses
// canonical forms").
func canonicalTypeName(k value.Kind) (string, error) {
	switch k {
	case value.KindInt32:
		return "int32", nil
	case value.KindUInt32:
		return "uint32", nil
	case value.KindInt64:
		return "int64", nil
	case value.KindUInt64:
		return "uint64", nil
	case value.KindDouble:
		return "double", nil
	case value.KindString:
		return "string", nil
	case value.KindBlob:
		return "blob", nil
	case value.KindGuid:
		return "guid", nil
	case value.KindBool:
		return "bool", nil
	default:
		return "", errs.ErrUnknownKind
	}
}

// FormatSchemaLine renders s as the body of a `schema:` header line or a schema-0
// redeclaration value (spec.md §4.3): "<index> <name> <f1>:<t1> <f2>:<t2> …".
func FormatSchemaLine(s *schema.Schema) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", s.Index, s.Name)

	for _, f := range s.Fields {
		tname, err := canonicalTypeName(f.Kind)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " %s:%s", f.Name, tname)
	}

	return b.String(), nil
}

// ParseSchemaLine parses the body of a `schema:` line (or schema-0 redeclaration
// value) into a Schema.
func ParseSchemaLine(line string) (*schema.Schema, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("schema line %q: %w", line, errs.ErrMalformedSchema)
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("schema line %q: %w", line, errs.ErrMalformedSchema)
	}

	s := &schema.Schema{Index: idx, Name: fields[1]}
	for _, spec := range fields[2:] {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("schema field %q: %w", spec, errs.ErrMalformedSchema)
		}
		kind, ok := legacyTypeAliases[parts[1]]
		if !ok {
			return nil, fmt.Errorf("schema field type %q: %w", parts[1], errs.ErrUnknownTypeName)
		}
		s.Fields = append(s.Fields, schema.Field{Name: parts[0], Kind: kind})
	}

	return s, nil
}
