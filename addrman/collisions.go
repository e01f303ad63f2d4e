package addrman

import "time"

// selectTriedCollision implements select_tried_collision_ (spec.md
// §4.7): pick a uniform random queued candidate and return the
// current occupant of its intended TRIED slot.
func (c *core) selectTriedCollision() *Entry {
	if len(c.triedCollisions) == 0 {
		return nil
	}
	idx := c.rnd.Intn(len(c.triedCollisions))
	id := c.triedCollisions[idx]
	e, ok := c.entries[id]
	if !ok {
		c.triedCollisions = append(c.triedCollisions[:idx], c.triedCollisions[idx+1:]...)
		return nil
	}
	tb := triedBucket(c.key, e.Peer)
	tp := bucketPos(c.key, false, tb, e.Peer)
	occupantID := c.buckets.getTried(tb, tp)
	if occupantID == noEntry {
		return nil
	}
	return c.entries[occupantID]
}

// resolveTriedCollisions implements resolve_tried_collisions_ (spec.md
// §4.7), draining entries that are no longer pending.
func (c *core) resolveTriedCollisions(now time.Time) {
	remaining := c.triedCollisions[:0:0]
	for _, id := range c.triedCollisions {
		if c.drainCollision(id, now) {
			continue
		}
		remaining = append(remaining, id)
	}
	c.triedCollisions = remaining
}

// drainCollision reports whether id should be dropped from the queue
// (either resolved one way or the other, or no longer known).
func (c *core) drainCollision(id entryID, now time.Time) bool {
	e, ok := c.entries[id]
	if !ok {
		return true
	}
	peer := e.Peer

	tb := triedBucket(c.key, peer)
	tp := bucketPos(c.key, false, tb, peer)
	occupantID := c.buckets.getTried(tb, tp)
	if occupantID == noEntry {
		c.markGood(peer, false, now)
		return true
	}

	occupant := c.entries[occupantID]
	switch {
	case now.Sub(occupant.lastSuccess) < collisionRecentSuccess:
		return true
	case now.Sub(occupant.lastTry) < collisionRecentTry:
		if now.Sub(occupant.lastTry) > collisionMinTrySince {
			c.markGood(peer, false, now)
			return true
		}
		return false
	case now.Sub(e.lastSuccess) > collisionStaleSuccess:
		c.markGood(peer, false, now)
		return true
	}
	return false
}
