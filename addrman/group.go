package addrman

import (
	"net"
	"sync"

	asnutil "github.com/libp2p/go-libp2p-asn-util"
	"github.com/libp2p/go-cidranger"
)

// groupFor computes the coarse network-locality grouping byte-string
// for a host, used solely as a hashing input (it must be deterministic
// and need not be reversible). IPv4 hosts group by /16; IPv6 hosts
// group by announcing-AS when a lookup succeeds, falling back to a
// /32 prefix; anything that doesn't parse as an IP (a DNS name, for
// overlays that allow them) groups by its own identity, since there is
// no coarser locality notion available.
func groupFor(host string) []byte {
	ip := net.ParseIP(host)
	if ip == nil {
		return []byte("name:" + host)
	}
	if v4 := ip.To4(); v4 != nil {
		return []byte{'4', v4[0], v4[1]}
	}
	if asn, err := asnutil.AsnForIPv6(ip); err == nil && asn != "" {
		return append([]byte("asn:"), []byte(asn)...)
	}
	v6 := ip.To16()
	return append([]byte{'6'}, v6[:4]...)
}

var (
	nonRoutableOnce   sync.Once
	nonRoutableRanger cidranger.Ranger
)

// nonRoutableCIDRs is the set of ranges a real node would never
// usefully dial: loopback, link-local, RFC1918/RFC4193 private space,
// documentation ranges, and the unspecified address blocks. This is
// the Go-native analogue of the original's addrutil.IsRoutable check.
var nonRoutableCIDRs = []string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"255.255.255.255/32",
	"::/128",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
	"2001:db8::/32",
	"ff00::/8",
}

func routabilityRanger() cidranger.Ranger {
	nonRoutableOnce.Do(func() {
		r := cidranger.NewPCTrieRanger()
		for _, cidr := range nonRoutableCIDRs {
			_, network, err := net.ParseCIDR(cidr)
			if err != nil {
				continue
			}
			_ = r.Insert(cidranger.NewBasicRangerEntry(*network))
		}
		nonRoutableRanger = r
	})
	return nonRoutableRanger
}

// IsRoutable reports whether host is a syntactically valid IP address
// outside of any known non-routable range. Non-IP hosts (DNS names)
// are considered routable here — resolution and its own routability
// check happens downstream, out of this package's scope.
func IsRoutable(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return host != ""
	}
	ok, err := routabilityRanger().Contains(ip)
	if err != nil {
		return false
	}
	return !ok
}
