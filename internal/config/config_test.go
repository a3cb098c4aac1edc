package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultDir, cfg.Dir)
	assert.Equal(t, defaultDBFilename, cfg.DBFilename)
	assert.Equal(t, "", cfg.ReplicaOf)
	_, _, ok := cfg.MasterAddr()
	assert.False(t, ok)
}

func TestParseReplicaOf(t *testing.T) {
	cfg, err := Parse([]string{"--port", "6380", "--replicaof", "127.0.0.1 6379"})
	require.NoError(t, err)
	assert.Equal(t, 6380, cfg.Port)
	host, port, ok := cfg.MasterAddr()
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 6379, port)
}

func TestParseMalformedReplicaOf(t *testing.T) {
	cfg, err := Parse([]string{"--replicaof", "justhost"})
	require.NoError(t, err)
	_, _, ok := cfg.MasterAddr()
	assert.False(t, ok)
}
