package addrman

import (
	"time"

	logging "github.com/ipfs/go-log"
)

var log = logging.Logger("addrman")

// epochZero is the "0" timestamp sentinel used throughout the
// original algorithm (an endpoint/entry that has never been
// meaningfully timestamped), represented as the Unix epoch rather than
// Go's zero time.Time so that Unix-second arithmetic behaves the way
// the reference implementation's integer timestamps do.
var epochZero = time.Unix(0, 0)

func isZeroTime(t time.Time) bool {
	return t.IsZero() || !t.After(epochZero)
}

func maxEpochZero(t time.Time) time.Time {
	if t.Before(epochZero) {
		return epochZero
	}
	return t
}

// core is the unsynchronized address-manager state machine. It holds
// no lock; callers (Manager, in sync.go) are responsible for
// serializing access. This split mirrors the original's public
// async-with-lock methods delegating to private, lock-free helpers.
type core struct {
	key [32]byte

	buckets     *bucketMatrix
	entries     map[entryID]*Entry
	hostIndex   map[string]entryID
	randomOrder []entryID
	idCounter   int64

	newCount   int
	triedCount int

	lastGood        time.Time
	triedCollisions []entryID

	clock Clock
	rnd   Source
}

func newCore(clock Clock, rnd Source) (*core, error) {
	key, err := newManagerKey()
	if err != nil {
		return nil, err
	}
	return &core{
		key:       key,
		buckets:   newBucketMatrix(),
		entries:   make(map[entryID]*Entry),
		hostIndex: make(map[string]entryID),
		lastGood:  time.Unix(1, 0),
		clock:     clock,
		rnd:       rnd,
	}, nil
}

func (c *core) size() int { return len(c.randomOrder) }

// create allocates a fresh entry and registers it in every arena
// structure except the bucket matrices.
func (c *core) create(peer, src Endpoint) (*Entry, entryID) {
	c.idCounter++
	id := entryID(c.idCounter)
	e := &Entry{Peer: peer, Src: src, time: peer.Timestamp}
	c.entries[id] = e
	c.hostIndex[peer.Host] = id
	e.randomPos = len(c.randomOrder)
	c.randomOrder = append(c.randomOrder, id)
	return e, id
}

// find looks an endpoint up by host only, matching spec.md invariant 5
// (map_addr is keyed by host, not host+port). Callers must still
// verify the returned entry's port matches before trusting it refers
// to the same endpoint.
func (c *core) find(addr Endpoint) (*Entry, entryID) {
	id, ok := c.hostIndex[addr.Host]
	if !ok {
		return nil, noEntry
	}
	e, ok := c.entries[id]
	if !ok {
		return nil, id
	}
	return e, id
}

// sameEndpoint reports whether e identifies the exact same host+port
// as addr, used to guard against a stale hostIndex mapping after a
// host has been repointed to a different port.
func sameEndpoint(e *Entry, addr Endpoint) bool {
	return e.Peer.Host == addr.Host && e.Peer.Port == addr.Port
}

func (c *core) swapRandom(i, j int) {
	if i == j {
		return
	}
	idI, idJ := c.randomOrder[i], c.randomOrder[j]
	c.entries[idI].randomPos = j
	c.entries[idJ].randomPos = i
	c.randomOrder[i], c.randomOrder[j] = idJ, idI
}

func (c *core) deleteNewEntry(id entryID) {
	e := c.entries[id]
	c.swapRandom(e.randomPos, len(c.randomOrder)-1)
	c.randomOrder = c.randomOrder[:len(c.randomOrder)-1]
	delete(c.hostIndex, e.Peer.Host)
	delete(c.entries, id)
	c.newCount--
}

// clearNew empties a NEW slot, decrementing the occupant's refcount
// and deleting it outright if that was its last reference.
func (c *core) clearNew(bucket, pos uint32) {
	id := c.buckets.getNew(bucket, pos)
	if id == noEntry {
		return
	}
	e := c.entries[id]
	e.refCount--
	c.buckets.setNew(bucket, pos, noEntry)
	if e.refCount == 0 {
		c.deleteNewEntry(id)
	}
}

// makeTried promotes e/id to the TRIED table, clearing every NEW slot
// that references it first (an entry may have refcount > 1) and
// evicting any existing TRIED occupant of the target slot back into
// NEW.
func (c *core) makeTried(e *Entry, id entryID) {
	for b := uint32(0); b < NewBucketCount; b++ {
		pos := bucketPos(c.key, true, b, e.Peer)
		if c.buckets.getNew(b, pos) == id {
			c.buckets.setNew(b, pos, noEntry)
			e.refCount--
		}
	}
	c.newCount--

	curBucket := triedBucket(c.key, e.Peer)
	curPos := bucketPos(c.key, false, curBucket, e.Peer)

	if evictedID := c.buckets.getTried(curBucket, curPos); evictedID != noEntry {
		evicted := c.entries[evictedID]
		evicted.isTried = false
		c.buckets.setTried(curBucket, curPos, noEntry)
		c.triedCount--

		nb := newBucket(c.key, evicted.Peer, evicted.Src)
		npos := bucketPos(c.key, true, nb, evicted.Peer)
		c.clearNew(nb, npos)
		evicted.refCount = 1
		c.buckets.setNew(nb, npos, evictedID)
		c.newCount++
		log.Debugf("addrman: evicted tried entry back to new, bucket=%d pos=%d", nb, npos)
	}

	c.buckets.setTried(curBucket, curPos, id)
	c.triedCount++
	e.isTried = true
}

// markGood implements mark_good_ / make_tried_ (spec.md §4.3).
func (c *core) markGood(addr Endpoint, testBeforeEvict bool, now time.Time) {
	c.lastGood = now
	e, id := c.find(addr)
	if e == nil || !sameEndpoint(e, addr) {
		return
	}

	e.lastSuccess = now
	e.lastTry = now
	e.attempts = 0

	if e.isTried {
		return
	}

	rnd := uint32(c.rnd.Intn(NewBucketCount))
	found := false
	for n := uint32(0); n < NewBucketCount; n++ {
		b := (n + rnd) % NewBucketCount
		pos := bucketPos(c.key, true, b, e.Peer)
		if c.buckets.getNew(b, pos) == id {
			found = true
			break
		}
	}
	if !found {
		return
	}

	triedB := triedBucket(c.key, e.Peer)
	triedP := bucketPos(c.key, false, triedB, e.Peer)

	if testBeforeEvict && c.buckets.getTried(triedB, triedP) != noEntry {
		if len(c.triedCollisions) < TriedCollisionSize && !containsID(c.triedCollisions, id) {
			c.triedCollisions = append(c.triedCollisions, id)
			log.Debugf("addrman: queued tried collision for %s", addr.canonical())
		}
		return
	}
	c.makeTried(e, id)
}

// compactTerrible drops every NEW-table entry that is currently
// terrible, clearing each bucket slot it occupies before deleting it
// outright. TRIED entries are never touched here — eviction from
// TRIED only ever happens via makeTried's collision path. It returns
// the number of entries removed.
func (c *core) compactTerrible(now time.Time) int {
	removed := 0
	for _, id := range append([]entryID(nil), c.randomOrder...) {
		e, ok := c.entries[id]
		if !ok || e.isTried || !e.IsTerrible(now) {
			continue
		}
		for b := uint32(0); b < NewBucketCount; b++ {
			pos := bucketPos(c.key, true, b, e.Peer)
			if c.buckets.getNew(b, pos) == id {
				c.buckets.setNew(b, pos, noEntry)
				e.refCount--
			}
		}
		if _, stillPresent := c.entries[id]; stillPresent {
			c.deleteNewEntry(id)
			removed++
		}
	}
	return removed
}

func containsID(ids []entryID, id entryID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// addToNewTable implements add_to_new_table_ (spec.md §4.2). now is
// drawn from c.clock at call time, never cached, per spec.md §9.
func (c *core) addToNewTable(addr, source Endpoint, penalty time.Duration) bool {
	now := c.clock.Now()
	e, id := c.find(addr)
	if e != nil && sameEndpoint(e, addr) {
		penalty = 0
	}

	isUnique := false
	if e != nil {
		currentlyOnline := now.Sub(addr.Timestamp) < onlineWindow
		updateInterval := offlineUpdateInterval
		if currentlyOnline {
			updateInterval = onlineUpdateInterval
		}

		if !isZeroTime(addr.Timestamp) &&
			(isZeroTime(e.time) || e.time.Before(addr.Timestamp.Add(-updateInterval).Add(-penalty))) {
			e.time = maxEpochZero(addr.Timestamp.Add(-penalty))
		}

		if isZeroTime(addr.Timestamp) || (!isZeroTime(e.time) && !addr.Timestamp.After(e.time)) {
			return false
		}
		if e.isTried {
			return false
		}
		if e.refCount == NewBucketsPerAddress {
			return false
		}
		factor := 1 << uint(e.refCount)
		if factor > 1 && c.rnd.Intn(factor) != 0 {
			return false
		}
	} else {
		e, id = c.create(addr, source)
		e.time = maxEpochZero(e.time.Add(-penalty))
		c.newCount++
		isUnique = true
	}

	ub := newBucket(c.key, e.Peer, source)
	upos := bucketPos(c.key, true, ub, e.Peer)
	if c.buckets.getNew(ub, upos) != id {
		insert := c.buckets.getNew(ub, upos) == noEntry
		if !insert {
			existingID := c.buckets.getNew(ub, upos)
			existing := c.entries[existingID]
			if existing.IsTerrible(now) || (existing.refCount > 1 && e.refCount == 0) {
				insert = true
			}
		}
		if insert {
			c.clearNew(ub, upos)
			e.refCount++
			c.buckets.setNew(ub, upos, id)
		} else if e.refCount == 0 {
			c.deleteNewEntry(id)
		}
	}
	return isUnique
}

// attempt implements attempt_ (spec.md §4.4), using the manager-global
// lastGood timestamp per spec.md §9's resolution of the nLastGood
// ambiguity.
func (c *core) attempt(addr Endpoint, countFailures bool, now time.Time) {
	e, _ := c.find(addr)
	if e == nil || !sameEndpoint(e, addr) {
		return
	}
	e.lastTry = now
	if countFailures && e.lastCountAttempt.Before(c.lastGood) {
		e.lastCountAttempt = now
		e.attempts++
	}
}

// connect implements connect_ (spec.md §4.4).
func (c *core) connect(addr Endpoint, now time.Time) {
	e, _ := c.find(addr)
	if e == nil || !sameEndpoint(e, addr) {
		return
	}
	if now.Sub(e.time) > connectUpdateInterval {
		e.time = now
	}
}
