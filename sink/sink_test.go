package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkAppendsAndFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	s, err := NewFile(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Write([]byte("row one\n")))
	require.NoError(t, s.Write([]byte("row two\n")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row one\nrow two\n", string(data))
}

func TestFileSinkFlushModeWritesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	s, err := NewFile(path, true)
	require.NoError(t, err)
	require.NoError(t, s.Write([]byte("row\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row\n", string(data))
	require.NoError(t, s.Close())
}

func TestParseURIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := ParseURI("file:" + path)
	require.NoError(t, err)
	_, ok := s.(*File)
	assert.True(t, ok)
	require.NoError(t, s.Close())
}

func TestParseURIFileDoubleSlashBackCompat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := ParseURI("file://" + path)
	require.NoError(t, err)
	_, ok := s.(*File)
	assert.True(t, ok)
	require.NoError(t, s.Close())
}

func TestParseURIFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := ParseURI("flush:" + path)
	require.NoError(t, err)
	f, ok := s.(*File)
	require.True(t, ok)
	assert.True(t, f.flushAll)
}

func TestParseURICompressedPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := ParseURI("gzip+file:" + path)
	require.NoError(t, err)
	_, ok := s.(*Compressed)
	assert.True(t, ok)
	require.NoError(t, s.Close())
}

func TestParseURIRejectsUnknownForm(t *testing.T) {
	_, err := ParseURI("host:1234")
	assert.Error(t, err)

	_, err = ParseURI("tcp:host:1234")
	assert.Error(t, err)
}
