package addrman

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupForIPv4UsesSlash16(t *testing.T) {
	a := groupFor("203.0.113.5")
	b := groupFor("203.0.113.200")
	c := groupFor("203.1.113.5")
	assert.Equal(t, a, b, "same /16 must group identically")
	assert.NotEqual(t, a, c, "different /16 must group differently")
}

func TestGroupForNonIPUsesNameIdentity(t *testing.T) {
	a := groupFor("node-a.example.org")
	b := groupFor("node-b.example.org")
	assert.NotEqual(t, a, b)
}

func TestIsRoutableRejectsPrivateRanges(t *testing.T) {
	assert.False(t, IsRoutable("10.0.0.1"))
	assert.False(t, IsRoutable("192.168.1.1"))
	assert.False(t, IsRoutable("127.0.0.1"))
	assert.False(t, IsRoutable("::1"))
}

func TestIsRoutableAcceptsPublicAddresses(t *testing.T) {
	assert.True(t, IsRoutable("8.8.8.8"))
	assert.True(t, IsRoutable("1.1.1.1"))
}

func TestIsRoutableTreatsNamesAsRoutable(t *testing.T) {
	assert.True(t, IsRoutable("bootstrap.example.org"))
	assert.False(t, IsRoutable(""))
}
