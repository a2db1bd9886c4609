package text

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	in := "a\tb\nc\\d\x01e"
	esc := escapeString(in)
	assert.NotContains(t, esc, "\t")
	assert.NotContains(t, esc, "\n")

	out, err := unescapeString(esc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSchemaLineRoundTrip(t *testing.T) {
	s := &schema.Schema{Index: 1, Name: "t1", Fields: []schema.Field{
		{Name: "size", Kind: value.KindUInt32},
		{Name: "label", Kind: value.KindString},
	}}

	line, err := FormatSchemaLine(s)
	require.NoError(t, err)
	assert.Equal(t, "1 t1 size:uint32 label:string", line)

	parsed, err := ParseSchemaLine(line)
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestSchemaLineLegacyTypeAliases(t *testing.T) {
	parsed, err := ParseSchemaLine("2 t2 bli:int32 note:long flag:real")
	require.NoError(t, err)
	assert.Equal(t, value.KindInt32, parsed.Fields[0].Kind)
	assert.Equal(t, value.KindInt32, parsed.Fields[1].Kind)
	assert.Equal(t, value.KindDouble, parsed.Fields[2].Kind)
}

func TestDataLineRoundTrip(t *testing.T) {
	s := &schema.Schema{Fields: []schema.Field{
		{Name: "size", Kind: value.KindUInt32},
		{Name: "name", Kind: value.KindString},
	}}
	vals := []value.Value{value.NewUInt32(42), value.NewString("hi\tthere")}

	line, err := FormatDataLine(0.5, 1, 1, vals)
	require.NoError(t, err)

	parsed, err := ParseDataLine(strings.TrimSuffix(line, "\n"), s)
	require.NoError(t, err)
	assert.Equal(t, 0.5, parsed.Timestamp)
	assert.Equal(t, 1, parsed.Stream)
	assert.Equal(t, uint32(42), parsed.Values[0].UInt32())
	assert.Equal(t, "hi\tthere", parsed.Values[1].String())
}

// TestTextHandlerScenario covers spec.md §8 scenario 4: a header declaring one
// schema, a data line on it, a stream-0 schema redeclaration, then a data line on
// the newly declared stream.
func TestTextHandlerScenario(t *testing.T) {
	input := "protocol: 4\ndomain: d\ncontent: text\nschema: 1 t1 size:uint32\n\n" +
		"0.5\t1\t1\t42\n" +
		"0.6\t0\t1\t.\tschema\t2 t2 bli:int32\n" +
		"0.7\t2\t1\t-7\n"

	r := bufio.NewReader(bytes.NewBufferString(input))
	h, err := ParseSessionHeader(r, nil)
	require.NoError(t, err)
	require.Len(t, h.Schemas, 1)

	table := schema.NewTable()
	table.Set(h.Schemas[0])

	remainder, err := io.ReadAll(r)
	require.NoError(t, err)

	var ls LineScanner
	ls.Feed(remainder)

	var inserted []struct {
		table string
		val   float64
	}

	for {
		line, ok := ls.Next()
		if !ok {
			break
		}
		streamIdx, err := PeekStream(line)
		require.NoError(t, err)

		s := table.Get(streamIdx)
		require.NotNil(t, s)

		parsed, err := ParseDataLine(line, s)
		require.NoError(t, err)

		if parsed.Stream == schema.MetadataIndex {
			require.Equal(t, ".", parsed.Values[0].String())
			require.Equal(t, "schema", parsed.Values[1].String())
			news, err := ParseSchemaLine(parsed.Values[2].String())
			require.NoError(t, err)
			table.Set(news)

			continue
		}

		inserted = append(inserted, struct {
			table string
			val   float64
		}{s.Name, parsed.Values[0].Float64()})
	}

	require.Len(t, inserted, 2)
	assert.Equal(t, "t1", inserted[0].table)
	assert.Equal(t, float64(42), inserted[0].val)
	assert.Equal(t, "t2", inserted[1].table)
	assert.Equal(t, float64(-7), inserted[1].val)
}
