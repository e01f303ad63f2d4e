package addrman

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToNewTableInsertsUniqueEntry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(1, now)

	peer := mustEndpoint(1, now)
	src := mustEndpoint(2, now)

	isUnique := c.addToNewTable(peer, src, 0)
	require.True(t, isUnique)
	assert.Equal(t, 1, c.size())
	assert.Equal(t, 1, c.newCount)

	isUnique = c.addToNewTable(peer, src, 0)
	assert.False(t, isUnique)
	assert.Equal(t, 1, c.size())
}

func TestAddToNewTableIgnoresStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(2, now)

	peer := mustEndpoint(1, now)
	src := mustEndpoint(2, now)
	c.addToNewTable(peer, src, 0)

	stale := peer
	stale.Timestamp = now.Add(-48 * time.Hour)
	c.addToNewTable(stale, src, 0)

	e, _ := c.find(peer)
	require.NotNil(t, e)
	assert.True(t, e.time.Equal(now) || e.time.After(now.Add(-time.Minute)))
}

func TestMarkGoodPromotesToTried(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(3, now)

	peer := mustEndpoint(1, now)
	src := mustEndpoint(2, now)
	c.addToNewTable(peer, src, 0)

	c.markGood(peer, false, now)

	e, _ := c.find(peer)
	require.NotNil(t, e)
	assert.True(t, e.IsTried())
	assert.Equal(t, 0, e.refCount)
	assert.Equal(t, 1, c.triedCount)
	assert.Equal(t, 0, c.newCount)
}

func TestMarkGoodQueuesCollisionWhenTestBeforeEvict(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(4, now)

	var occupantPeer, occupantSrc Endpoint
	var candidate Endpoint
	for i := 0; i < 4096; i++ {
		p := mustEndpoint(i, now)
		s := mustEndpoint(i+1<<20, now)
		if occupantPeer == (Endpoint{}) {
			c.addToNewTable(p, s, 0)
			c.markGood(p, false, now)
			if e, _ := c.find(p); e != nil && e.IsTried() {
				occupantPeer, occupantSrc = p, s
			}
			continue
		}
		// Candidates are only compared, not inserted, so the occupant
		// stays in its TRIED slot until the collision below.
		tb := triedBucket(c.key, p)
		tp := bucketPos(c.key, false, tb, p)
		if triedBucket(c.key, occupantPeer) == tb && bucketPos(c.key, false, tb, occupantPeer) == tp {
			candidate = p
			break
		}
	}
	if candidate == (Endpoint{}) {
		t.Skip("no colliding tried slot found for this seed")
	}

	c.addToNewTable(candidate, occupantSrc, 0)
	c.markGood(candidate, true, now)

	occ, _ := c.find(occupantPeer)
	require.NotNil(t, occ)
	assert.True(t, occ.IsTried(), "original occupant must remain tried while collision is pending")
	assert.Len(t, c.triedCollisions, 1)
}

func TestAttemptCountsFailuresSinceLastGood(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(5, now)

	peer := mustEndpoint(1, now)
	src := mustEndpoint(2, now)
	c.addToNewTable(peer, src, 0)

	c.attempt(peer, true, now.Add(time.Minute))
	c.attempt(peer, true, now.Add(2*time.Minute))

	// Failures are counted at most once between successive markGood
	// calls, so the second attempt is not counted.
	e, _ := c.find(peer)
	assert.Equal(t, 1, e.Attempts())

	c.markGood(peer, false, now.Add(3*time.Minute))
	assert.Equal(t, 0, e.Attempts())

	c.attempt(peer, true, now.Add(4*time.Minute))
	assert.Equal(t, 1, e.Attempts())
}

func TestConnectRefreshesAfterInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(6, now)

	peer := mustEndpoint(1, now)
	src := mustEndpoint(2, now)
	c.addToNewTable(peer, src, 0)

	e, _ := c.find(peer)
	before := e.time

	c.connect(peer, now.Add(time.Minute))
	assert.Equal(t, before, e.time, "refresh within connectUpdateInterval should be a no-op")

	c.connect(peer, now.Add(connectUpdateInterval+time.Second))
	assert.True(t, e.time.After(before))
}

func TestCompactTerribleDropsOnlyTerribleNewEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(8, now)

	healthy := mustEndpoint(1, now)
	src := mustEndpoint(2, now)
	c.addToNewTable(healthy, src, 0)

	terrible := mustEndpoint(3, now)
	c.addToNewTable(terrible, src, 0)
	e, _ := c.find(terrible)
	e.time = now.Add(-40 * 24 * time.Hour)

	removed := c.compactTerrible(now)
	assert.Equal(t, 1, removed)

	_, id := c.find(terrible)
	assert.Equal(t, noEntry, id)

	stillThere, _ := c.find(healthy)
	require.NotNil(t, stillThere)
}

func TestCompactTerribleNeverTouchesTried(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(9, now)

	peer := mustEndpoint(1, now)
	src := mustEndpoint(2, now)
	c.addToNewTable(peer, src, 0)
	c.markGood(peer, false, now)

	e, _ := c.find(peer)
	require.True(t, e.IsTried())
	e.time = now.Add(-40 * 24 * time.Hour)
	e.lastSuccess = now.Add(-40 * 24 * time.Hour)

	removed := c.compactTerrible(now)
	assert.Equal(t, 0, removed)
	still, _ := c.find(peer)
	require.NotNil(t, still)
	assert.True(t, still.IsTried())
}

func TestMutatorsIgnoreStaleHostPortMapping(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(7, now)

	peerA := Endpoint{Host: "10.0.0.1", Port: 8333, Timestamp: now}
	src := mustEndpoint(2, now)
	c.addToNewTable(peerA, src, 0)

	staleLookup := Endpoint{Host: "10.0.0.1", Port: 9999}
	c.markGood(staleLookup, false, now)

	e, _ := c.find(peerA)
	require.NotNil(t, e)
	assert.False(t, e.IsTried(), "mark_good for a different port on the same host must be a no-op")
}
