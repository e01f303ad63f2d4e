package peerconn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMaxInboundPeers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.TargetPeerCount-cfg.TargetOutboundPeerCount, cfg.MaxInboundPeers())
}

func TestMaxInboundPeersNeverNegative(t *testing.T) {
	cfg := Config{TargetPeerCount: 4, TargetOutboundPeerCount: 10}
	assert.Equal(t, 0, cfg.MaxInboundPeers())
}

func TestLoadConfigOverridesDefaultsAndRecomputesMaxInbound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_peer_count: 20\ntarget_outbound_peer_count: 6\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.TargetPeerCount)
	assert.Equal(t, 6, cfg.TargetOutboundPeerCount)
	assert.Equal(t, 14, cfg.MaxInboundPeers())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
