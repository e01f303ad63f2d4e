package addrman

import (
	"fmt"
	"time"

	"github.com/multiformats/go-multihash"
)

// Endpoint is a host+port value type with a last-seen timestamp. It is
// the unit the manager learns about, buckets, and hands back to
// callers picking outbound dial targets.
type Endpoint struct {
	Host string
	Port uint16
	// Timestamp is the last time this endpoint was heard about from
	// any source.
	Timestamp time.Time
}

// canonical returns the "host:port" form that Key() hashes. Grouping
// and the manager's host-level lookups use Host alone, not this
// string. Ports are not zero-padded; hosts are used verbatim (callers
// are expected to have already normalized case/zone for IPv6 literals).
func (e Endpoint) canonical() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Key returns a self-describing identity-multihash over the canonical
// "host:port" string. It uniquely identifies the endpoint and is an
// input to the TRIED bucket and bucket-position hashes.
func (e Endpoint) Key() multihash.Multihash {
	mh, err := multihash.Sum([]byte(e.canonical()), multihash.IDENTITY, -1)
	if err != nil {
		// IDENTITY hashing over an arbitrary-length input cannot fail;
		// multihash.Sum only errors for algorithms with a fixed digest
		// size smaller than the requested length.
		panic(fmt.Sprintf("addrman: identity multihash of endpoint key failed: %v", err))
	}
	return mh
}

// keyString returns Key() as a string, suitable for use as a Go map
// key (multihash.Multihash is a []byte and not directly comparable).
func (e Endpoint) keyString() string {
	return string(e.Key())
}

// Group returns the coarse network-locality grouping byte-string used
// to spread bucket placement across sources/peers, see group.go.
func (e Endpoint) Group() []byte {
	return groupFor(e.Host)
}

// hostPort builds an Endpoint from a host and port, leaving the
// timestamp zero.
func hostPort(host string, port uint16) Endpoint {
	return Endpoint{Host: host, Port: port}
}
