package addrman

import (
	"math"
	"time"
)

// entryID is the arena key for an Entry; ids are never reused within a
// single manager's lifetime, though serialization always renumbers
// from zero.
type entryID int64

const noEntry entryID = -1

// Entry is one learned endpoint and its metadata (spec.md's
// ExtendedEntry / the original's ExtendedPeerInfo).
type Entry struct {
	// Peer is the learned endpoint.
	Peer Endpoint
	// Src is the endpoint that told us about Peer; equal to Peer when
	// self-announced.
	Src Endpoint

	randomPos int
	isTried   bool
	refCount  int

	lastSuccess      time.Time
	lastTry          time.Time
	lastCountAttempt time.Time
	attempts         int

	// time is an internal, possibly penalty-reduced copy of Peer's
	// timestamp; it is what bucket eviction and gossip freshness
	// actually consult, not Peer.Timestamp directly.
	time time.Time
}

// IsSelfAnnounced reports whether this entry's source is the peer
// itself, i.e. it was not relayed via gossip.
func (e *Entry) IsSelfAnnounced() bool {
	return e.Src.keyString() == e.Peer.keyString()
}

// RefCount returns the number of NEW-table slots currently holding
// this entry (always 0 for TRIED entries).
func (e *Entry) RefCount() int { return e.refCount }

// IsTried reports whether the entry currently occupies a TRIED slot.
func (e *Entry) IsTried() bool { return e.isTried }

// Attempts returns the number of counted failed connection attempts
// since the entry's last success (or since creation).
func (e *Entry) Attempts() int { return e.attempts }

// IsTerrible reports whether the entry is eligible for eviction from
// NEW or suppression from gossip, per spec.md §4.6.
func (e *Entry) IsTerrible(now time.Time) bool {
	if !e.lastTry.IsZero() && !e.lastTry.Before(now.Add(-recentlyTriedWindow)) {
		return false
	}
	if e.time.After(now.Add(futureTimestampSkew)) {
		return true
	}
	if e.time.IsZero() || now.Sub(e.time) > HorizonDays*24*time.Hour {
		return true
	}
	if e.lastSuccess.IsZero() && e.attempts >= MaxRetries {
		return true
	}
	if now.Sub(e.lastSuccess) > MinFailDays*24*time.Hour && e.attempts >= MaxFailures {
		return true
	}
	return false
}

// SelectionChance returns the relative weight used by select_peer's
// rejection sampling, per spec.md §4.5.
func (e *Entry) SelectionChance(now time.Time) float64 {
	chance := 1.0
	sinceLastTry := now.Sub(e.lastTry)
	if sinceLastTry < 0 {
		sinceLastTry = 0
	}
	if sinceLastTry < 10*time.Minute {
		chance *= 0.01
	}
	capped := e.attempts
	if capped > 8 {
		capped = 8
	}
	chance *= math.Pow(0.66, float64(capped))
	return chance
}
