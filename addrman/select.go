package addrman

// selectPeer implements select_peer_ (spec.md §4.5): a 50/50 (or
// forced) choice of table, then rejection sampling over a
// randomly-advancing bucket/position walk.
func (c *core) selectPeer(newOnly bool) *Endpoint {
	if len(c.randomOrder) == 0 {
		return nil
	}
	if newOnly && c.newCount == 0 {
		return nil
	}

	useTried := !newOnly && c.triedCount > 0 && (c.newCount == 0 || c.rnd.Intn(2) == 0)
	if useTried {
		return c.selectFrom(true)
	}
	return c.selectFrom(false)
}

// selectFrom runs the rejection-sampling walk over one table.
// fromTried selects TRIED when true, NEW when false.
func (c *core) selectFrom(fromTried bool) *Endpoint {
	bucketCount := uint32(NewBucketCount)
	bucketBits := uint(logNewBucketCount)
	if fromTried {
		bucketCount = TriedBucketCount
		bucketBits = logTriedBucketCount
	}

	now := c.clock.Now()
	factor := 1.0
	bucket := uint32(c.rnd.Intn(int(bucketCount)))
	pos := uint32(c.rnd.Intn(BucketSize))

	for {
		var id entryID
		if fromTried {
			id = c.buckets.getTried(bucket, pos)
		} else {
			id = c.buckets.getNew(bucket, pos)
		}
		for id == noEntry {
			bucket = (bucket + c.rnd.Uint32n(bucketBits)) % bucketCount
			pos = (pos + c.rnd.Uint32n(logBucketSize)) % BucketSize
			if fromTried {
				id = c.buckets.getTried(bucket, pos)
			} else {
				id = c.buckets.getNew(bucket, pos)
			}
		}

		e := c.entries[id]
		threshold := int64(factor * e.SelectionChance(now) * (1 << 30))
		if c.rnd.Int63n(1<<30) < threshold {
			peer := e.Peer
			return &peer
		}
		factor *= 1.2
	}
}

// getPeers implements get_peers_ (spec.md §4.5): a reservoir sample of
// up to min(2500, 23% of entries) non-terrible endpoints via a partial
// Fisher-Yates shuffle over randomOrder.
func (c *core) getPeers() []Endpoint {
	now := c.clock.Now()
	numNodes := (getPeersPercent * len(c.randomOrder)) / 100
	if numNodes > getPeersMax {
		numNodes = getPeersMax
	}

	out := make([]Endpoint, 0, numNodes)
	for n := 0; n < len(c.randomOrder); n++ {
		if len(out) >= numNodes {
			return out
		}
		rndPos := c.rnd.Intn(len(c.randomOrder)-n) + n
		c.swapRandom(n, rndPos)
		e := c.entries[c.randomOrder[n]]
		if !e.IsTerrible(now) {
			peer := e.Peer
			if e.time.After(peer.Timestamp) {
				peer.Timestamp = e.time
			}
			out = append(out, peer)
		}
	}
	return out
}
