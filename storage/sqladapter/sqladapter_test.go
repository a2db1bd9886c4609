package sqladapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

func TestCreateTableInsertAndAddSender(t *testing.T) {
	a := New(t.TempDir())

	db, err := a.Open("exp1")
	require.NoError(t, err)

	id, err := a.AddSender(db, "node0")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	idAgain, err := a.AddSender(db, "node0")
	require.NoError(t, err)
	assert.Equal(t, id, idAgain)

	sch := &schema.Schema{Index: 1, Name: "sine", Fields: []schema.Field{
		{Name: "v", Kind: value.KindDouble},
		{Name: "label", Kind: value.KindString},
	}}
	tbl, err := a.CreateTable(db, sch)
	require.NoError(t, err)

	err = a.Insert(db, tbl, id, 0, 1.0, 2.0, []value.Value{value.NewDouble(3.5), value.NewString("x")})
	require.NoError(t, err)

	require.NoError(t, a.Release(db))
}

func TestSqlTypeRejectsUnknownKind(t *testing.T) {
	_, err := sqlType(value.Kind(255))
	assert.Error(t, err)
}
