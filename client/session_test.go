package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/filter"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

func firstFilter(t *testing.T) filter.Filter {
	t.Helper()
	f, err := filter.Lookup("first")
	require.NoError(t, err)
	return f()
}

func TestNewRequiresDomainSenderAndCollector(t *testing.T) {
	_, err := New(WithSenderID("n0"), WithCollectURIs("file:/tmp/x"))
	assert.Error(t, err)

	_, err = New(WithDomain("exp"), WithCollectURIs("file:/tmp/x"))
	assert.Error(t, err)

	_, err = New(WithDomain("exp"), WithSenderID("n0"))
	assert.Error(t, err)
}

func TestSessionStartWritesHeaderAndInjectsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")

	sess, err := New(WithDomain("exp"), WithSenderID("n0"), WithAppName("app"), WithCollectURIs("file:"+path))
	require.NoError(t, err)

	sch := schema.Schema{Index: 1, Name: "sine", Fields: []schema.Field{{Name: "v", Kind: value.KindDouble}}}
	point, err := sess.RegisterMP("sine", sch, 1, 0, []filter.Filter{firstFilter(t)})
	require.NoError(t, err)

	require.NoError(t, sess.Start())
	sess.Inject(point, []value.Value{value.NewDouble(1.0)})
	require.NoError(t, sess.Close())

	injected, dropped, _, _, _, _ := sess.Counters()
	assert.Equal(t, int64(1), injected)
	assert.Equal(t, int64(0), dropped)
}

func TestRegisterMPAfterStartFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	sess, err := New(WithDomain("exp"), WithSenderID("n0"), WithCollectURIs("file:"+path))
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	sch := schema.Schema{Index: 1, Name: "x", Fields: []schema.Field{{Name: "v", Kind: value.KindInt32}}}
	_, err = sess.RegisterMP("x", sch, 1, 0, []filter.Filter{firstFilter(t)})
	assert.Error(t, err)
}

func TestNewGuidNeverZeroAndSessionUnique(t *testing.T) {
	sess, err := New(WithDomain("exp"), WithSenderID("n0"), WithCollectURIs("file:/dev/null"))
	require.NoError(t, err)

	seen := make(map[value.Guid]bool)
	for i := 0; i < 100; i++ {
		g := sess.NewGuid()
		require.Equal(t, value.KindGuid, g.Kind())
		assert.NotEqual(t, value.Guid(0), g.Guid())
		assert.False(t, seen[g.Guid()], "guid collided within one session")
		seen[g.Guid()] = true
	}
}
