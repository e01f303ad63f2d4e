package addrman

import "time"

// Wire-visible constants. These control bucket placement and eviction
// policy and must match across nodes that exchange serialized state
// for test reproducibility (they are never transmitted to peers).
const (
	// TriedBucketsPerGroup is the number of TRIED buckets a given
	// address group may land in.
	TriedBucketsPerGroup = 8
	// NewBucketsPerSourceGroup is the number of NEW buckets a given
	// source group may land in.
	NewBucketsPerSourceGroup = 64
	// TriedBucketCount is the number of buckets in the TRIED table.
	TriedBucketCount = 256
	// NewBucketCount is the number of buckets in the NEW table.
	NewBucketCount = 1024
	// BucketSize is the number of slots per bucket, in both tables.
	BucketSize = 64
	// TriedCollisionSize bounds the pending tried-collision queue.
	TriedCollisionSize = 10
	// NewBucketsPerAddress is the maximum refcount (NEW bucket
	// membership count) for a single entry.
	NewBucketsPerAddress = 8
	// HorizonDays is the age, in days, past which an entry is
	// considered to have "vanished" for terribleness purposes.
	HorizonDays = 30
	// MaxRetries is the attempt count past which a never-successful
	// entry is terrible.
	MaxRetries = 3
	// MinFailDays is the number of days of no success past which an
	// entry with many attempts becomes terrible.
	MinFailDays = 7
	// MaxFailures is the attempt count, combined with MinFailDays,
	// past which an entry is terrible.
	MaxFailures = 10

	// logTriedBucketCount and logNewBucketCount are the bit-widths of
	// the random bucket-advance step used by the rejection-sampling
	// selection walk (log2 of the respective bucket counts).
	logTriedBucketCount = 8
	logNewBucketCount   = 10
	// logBucketSize is the bit-width of the random position-advance
	// step within a bucket (log2 of BucketSize).
	logBucketSize = 6

	// connectUpdateInterval is the minimum gap between Connect
	// refreshes of an entry's internal timestamp.
	connectUpdateInterval = 20 * time.Minute
	// recentlyTriedWindow exempts entries tried this recently from
	// being terrible (and so from eviction). SelectionChance uses its
	// own, longer 10-minute window.
	recentlyTriedWindow = 60 * time.Second
	// onlineWindow decides which timestamp-refresh interval
	// (onlineUpdateInterval vs offlineUpdateInterval) applies in
	// addToNewTable.
	onlineWindow           = 24 * time.Hour
	onlineUpdateInterval   = time.Hour
	offlineUpdateInterval  = 24 * time.Hour
	futureTimestampSkew    = 10 * time.Minute
	collisionRecentSuccess = 4 * time.Hour
	collisionRecentTry     = 4 * time.Hour
	collisionMinTrySince   = time.Minute
	collisionStaleSuccess  = 40 * time.Minute

	// getPeersMax and getPeersPercent bound the reservoir sample
	// returned by GetPeers.
	getPeersMax     = 2500
	getPeersPercent = 23
)
