package textadapter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

func TestCreateTableWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)

	db, err := a.Open("exp1")
	require.NoError(t, err)

	sch := &schema.Schema{Index: 1, Name: "sine", Fields: []schema.Field{{Name: "v", Kind: value.KindDouble}}}
	tbl1, err := a.CreateTable(db, sch)
	require.NoError(t, err)
	tbl2, err := a.CreateTable(db, sch)
	require.NoError(t, err)
	assert.Same(t, tbl1, tbl2)

	require.NoError(t, a.Insert(db, tbl1, 3, 0, 1.0, 2.0, []value.Value{value.NewDouble(42.5)}))
	require.NoError(t, a.Release(db))

	data, err := os.ReadFile(filepath.Join(dir, "exp1", "sine.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Equal(t, "3\t0\t1\t2\t42.5", lines[1])
}

func TestAddSenderIsStableAndSequential(t *testing.T) {
	a := New(t.TempDir())
	db, err := a.Open("exp1")
	require.NoError(t, err)

	id1, err := a.AddSender(db, "node0")
	require.NoError(t, err)
	id2, err := a.AddSender(db, "node1")
	require.NoError(t, err)
	id1Again, err := a.AddSender(db, "node0")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, id1, id1Again)
}

func TestEscapeTabEscapesControlCharacters(t *testing.T) {
	got := formatValue(value.NewString("a\tb\\c"))
	assert.Equal(t, `a\tb\\c`, got)
}
