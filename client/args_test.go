package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsConsumesOmlFlags(t *testing.T) {
	argv := []string{"--verbose", "--oml-domain", "exp1", "--oml-id=node0", "-x", "3"}

	rest, cfg, err := ParseArgs("prog", argv)
	require.NoError(t, err)

	assert.Equal(t, []string{"--verbose", "-x", "3"}, rest)
	assert.Equal(t, "exp1", cfg.Domain)
	assert.Equal(t, "node0", cfg.SenderID)
}

func TestParseArgsSplitsCollectURIs(t *testing.T) {
	argv := []string{"--oml-collect", "tcp://a:1,tcp://b:2"}

	_, cfg, err := ParseArgs("prog", argv)
	require.NoError(t, err)
	assert.Equal(t, []string{"tcp://a:1", "tcp://b:2"}, cfg.URIs)
}

func TestParseArgsNoOmlFlagsLeavesArgvUntouched(t *testing.T) {
	argv := []string{"a", "b", "c"}
	rest, _, err := ParseArgs("prog", argv)
	require.NoError(t, err)
	assert.Equal(t, argv, rest)
}
