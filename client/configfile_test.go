package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytestbed/oml/filter"
	"github.com/mytestbed/oml/schema"
	"github.com/mytestbed/oml/value"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oml.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadConfigFileParsesTopLevelKeys(t *testing.T) {
	path := writeConfigFile(t, "domain: exp1\nsender-id: node0\napp-name: app\ncollect: tcp://a:1,tcp://b:2\nsamples: 4\ninterval: 2.5\n")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "exp1", cfg.Domain)
	assert.Equal(t, "node0", cfg.SenderID)
	assert.Equal(t, "app", cfg.AppName)
	assert.Equal(t, []string{"tcp://a:1", "tcp://b:2"}, cfg.URIs)
	assert.Equal(t, 4, cfg.DefaultSamples)
	assert.Equal(t, 2500*time.Millisecond, cfg.DefaultInterval)
}

func TestLoadConfigFileParsesPerMPOverrides(t *testing.T) {
	path := writeConfigFile(t, "domain: exp1\nsender-id: node0\nmp.sine.samples: 10\nmp.sine.interval: 1.0\n")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	o, ok := cfg.Overrides["sine"]
	require.True(t, ok)
	assert.Equal(t, 10, o.Samples)
	assert.Equal(t, time.Second, o.Interval)
}

func TestRegisterMPAppliesConfigFileOverride(t *testing.T) {
	path := writeConfigFile(t, "domain: exp1\nsender-id: node0\ncollect: file:/dev/null\nmp.sine.samples: 7\n")
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	sess, err := New(WithDomain(cfg.Domain), WithSenderID(cfg.SenderID), WithCollectURIs(cfg.URIs...))
	require.NoError(t, err)
	sess.cfg.Overrides = cfg.Overrides

	sch := schema.Schema{Index: 1, Name: "sine", Fields: []schema.Field{{Name: "v", Kind: value.KindDouble}}}
	firstFactory, err := filter.Lookup("first")
	require.NoError(t, err)

	point, err := sess.RegisterMP("sine", sch, 1, 0, []filter.Filter{firstFactory()})
	require.NoError(t, err)
	require.Len(t, sess.pending, 1)
	assert.Equal(t, 7, sess.pending[0].threshold)
	assert.Same(t, point, sess.pending[0].point)
}
