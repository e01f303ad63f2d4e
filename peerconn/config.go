// Package peerconn adapts addrman.Manager to a connection-management
// surface that speaks multiaddrs at its boundary, per spec.md §7's
// "peerconn" integration point.
package peerconn

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the small set of knobs a connection manager needs beyond
// what addrman.Manager itself exposes. It is loaded once at startup,
// the way the teacher's own services load their YAML config.
type Config struct {
	// TargetPeerCount is the number of connections the caller tries to
	// maintain in total (inbound + outbound).
	TargetPeerCount int `yaml:"target_peer_count"`
	// TargetOutboundPeerCount is the number of those connections that
	// should be outbound, self-initiated dials.
	TargetOutboundPeerCount int `yaml:"target_outbound_peer_count"`
	// FeelerInterval is how often a short-lived "feeler" connection is
	// attempted purely to test a NEW-table candidate's liveness.
	FeelerInterval time.Duration `yaml:"feeler_interval"`
}

// DefaultConfig mirrors the original's hardcoded connection targets.
func DefaultConfig() Config {
	return Config{
		TargetPeerCount:         8,
		TargetOutboundPeerCount: 8,
		FeelerInterval:          2 * time.Minute,
	}
}

// MaxInboundPeers is the maximum number of unsolicited inbound
// connections to accept, computed as the gap between the total and
// outbound targets (connection.py's
// self.max_inbound_count = config["target_peer_count"] -
// config["target_outbound_peer_count"]). It is derived rather than
// independently configured so the two targets can never drift out of
// sync with the inbound ceiling.
func (c Config) MaxInboundPeers() int {
	if n := c.TargetPeerCount - c.TargetOutboundPeerCount; n > 0 {
		return n
	}
	return 0
}

// LoadConfig reads a YAML config file, filling any field it omits from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("peerconn: reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("peerconn: parsing config: %w", err)
	}
	return cfg, nil
}
