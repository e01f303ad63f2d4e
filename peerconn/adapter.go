package peerconn

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/multiformats/go-multiaddr"

	"github.com/basalt-network/addrman"
)

// Adapter wraps an addrman.Manager with a multiaddr-speaking surface,
// the boundary at which wire-facing peer representations are parsed
// down to the plain host/port endpoints the manager deals in.
type Adapter struct {
	mgr *addrman.Manager
	cfg Config
}

// NewAdapter wraps mgr for use behind cfg's connection targets.
func NewAdapter(mgr *addrman.Manager, cfg Config) *Adapter {
	return &Adapter{mgr: mgr, cfg: cfg}
}

// MaxInboundPeers returns the inbound connection ceiling derived from
// the adapter's configured connection targets.
func (a *Adapter) MaxInboundPeers() int { return a.cfg.MaxInboundPeers() }

// AddPotentialPeers parses and records endpoints learned from source
// (nil for self-announced), per spec.md §7. Endpoints that fail to
// parse as a dialable host:port multiaddr, or that resolve to a
// non-routable host, are silently skipped rather than surfaced as
// errors — a single malformed gossip entry must not fail the batch.
func (a *Adapter) AddPotentialPeers(ctx context.Context, addrs []multiaddr.Multiaddr, source multiaddr.Multiaddr, penalty time.Duration) (bool, error) {
	endpoints := make([]addrman.Endpoint, 0, len(addrs))
	for _, ma := range addrs {
		ep, ok := toEndpoint(ma)
		if !ok {
			continue
		}
		endpoints = append(endpoints, ep)
	}
	if len(endpoints) == 0 {
		return false, nil
	}

	var src *addrman.Endpoint
	if source != nil {
		if ep, ok := toEndpoint(source); ok {
			src = &ep
		}
	}
	return a.mgr.AddToNewTable(ctx, endpoints, src, penalty)
}

// MarkGood reports a successful handshake with a peer.
func (a *Adapter) MarkGood(ctx context.Context, peer multiaddr.Multiaddr, testBeforeEvict bool, now time.Time) error {
	ep, ok := toEndpoint(peer)
	if !ok {
		return fmt.Errorf("peerconn: %s is not a dialable endpoint", peer)
	}
	return a.mgr.MarkGood(ctx, ep, testBeforeEvict, now)
}

// MarkAttempted records a connection attempt to peer.
func (a *Adapter) MarkAttempted(ctx context.Context, peer multiaddr.Multiaddr, countFailures bool, now time.Time) error {
	ep, ok := toEndpoint(peer)
	if !ok {
		return fmt.Errorf("peerconn: %s is not a dialable endpoint", peer)
	}
	return a.mgr.Attempt(ctx, ep, countFailures, now)
}

// UpdateConnectionTime refreshes peer's liveness timestamp on an
// active connection.
func (a *Adapter) UpdateConnectionTime(ctx context.Context, peer multiaddr.Multiaddr, now time.Time) error {
	ep, ok := toEndpoint(peer)
	if !ok {
		return fmt.Errorf("peerconn: %s is not a dialable endpoint", peer)
	}
	return a.mgr.Connect(ctx, ep, now)
}

// SelectOutboundTarget picks a candidate dial target as a multiaddr.
func (a *Adapter) SelectOutboundTarget(ctx context.Context, newOnly bool) (multiaddr.Multiaddr, error) {
	ep, err := a.mgr.SelectPeer(ctx, newOnly)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, nil
	}
	return fromEndpoint(*ep)
}

// GetPeers returns a gossip-ready sample of known peers as multiaddrs,
// dropping any endpoint that fromEndpoint cannot render (a DNS-name
// host, which toEndpoint accepts, is dropped here).
func (a *Adapter) GetPeers(ctx context.Context) ([]multiaddr.Multiaddr, error) {
	eps, err := a.mgr.GetPeers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]multiaddr.Multiaddr, 0, len(eps))
	for _, ep := range eps {
		ma, err := fromEndpoint(ep)
		if err != nil {
			continue
		}
		out = append(out, ma)
	}
	return out, nil
}

// hostProtocols and portProtocols are tried in order; the first match
// wins, matching how a multiaddr's components are meant to be read
// positionally rather than by scanning for every possible protocol.
var hostProtocols = []int{multiaddr.P_IP4, multiaddr.P_IP6, multiaddr.P_DNS, multiaddr.P_DNS4, multiaddr.P_DNS6}
var portProtocols = []int{multiaddr.P_TCP, multiaddr.P_UDP}

// toEndpoint extracts a host and port from ma. It reports false for
// multiaddrs lacking either component, or whose host is non-routable
// (loopback, private, link-local).
func toEndpoint(ma multiaddr.Multiaddr) (addrman.Endpoint, bool) {
	var host string
	for _, p := range hostProtocols {
		if v, err := ma.ValueForProtocol(p); err == nil {
			host = v
			break
		}
	}

	var port uint16
	for _, p := range portProtocols {
		v, err := ma.ValueForProtocol(p)
		if err != nil {
			continue
		}
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			port = uint16(n)
			break
		}
	}

	if host == "" || port == 0 {
		return addrman.Endpoint{}, false
	}
	if !addrman.IsRoutable(host) {
		return addrman.Endpoint{}, false
	}
	return addrman.Endpoint{Host: host, Port: port}, true
}

// fromEndpoint renders ep back out as an IP-and-TCP multiaddr. It only
// supports literal IP hosts; a DNS-name host yields an error.
func fromEndpoint(ep addrman.Endpoint) (multiaddr.Multiaddr, error) {
	proto := "ip4"
	if looksLikeIPv6(ep.Host) {
		proto = "ip6"
	}
	s := fmt.Sprintf("/%s/%s/tcp/%d", proto, ep.Host, ep.Port)
	return multiaddr.NewMultiaddr(s)
}

func looksLikeIPv6(host string) bool {
	for _, r := range host {
		if r == ':' {
			return true
		}
	}
	return false
}
