package addrman

import (
	"encoding/binary"

	sha256 "github.com/minio/sha256-simd"
)

// stdhash is the single domain-separated SHA-256 used for every bucket
// placement decision. Using github.com/minio/sha256-simd instead of
// crypto/sha256 gets AVX2/SHA-NI acceleration transparently; the
// output is bit-for-bit identical to stdlib SHA-256, which matters
// since two nodes with the same K must agree on bucket placement.
func stdhash(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // sha256.digest.Write never errors
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// first8BE interprets the first 8 bytes of a hash as a big-endian
// unsigned integer, per spec.md §4.1.
func first8BE(h [32]byte) uint64 {
	return binary.BigEndian.Uint64(h[:8])
}

// triedBucket computes the TRIED bucket index for an entry's peer
// endpoint under key.
func triedBucket(key [32]byte, peer Endpoint) uint32 {
	inner := first8BE(stdhash(key[:], []byte(peer.Key()))) % TriedBucketsPerGroup
	outer := first8BE(stdhash(key[:], peer.Group(), []byte{byte(inner)})) % TriedBucketCount
	return uint32(outer)
}

// newBucket computes the NEW bucket index for an entry's peer endpoint
// as announced by src, under key.
func newBucket(key [32]byte, peer, src Endpoint) uint32 {
	inner := first8BE(stdhash(key[:], peer.Group(), src.Group())) % NewBucketsPerSourceGroup
	outer := first8BE(stdhash(key[:], src.Group(), []byte{byte(inner)})) % NewBucketCount
	return uint32(outer)
}

// bucketPos computes the within-bucket slot for peer in either table.
func bucketPos(key [32]byte, isNew bool, bucket uint32, peer Endpoint) uint32 {
	ch := byte('K')
	if isNew {
		ch = 'N'
	}
	var bucketBytes [3]byte
	bucketBytes[0] = byte(bucket >> 16)
	bucketBytes[1] = byte(bucket >> 8)
	bucketBytes[2] = byte(bucket)
	pos := first8BE(stdhash(key[:], []byte{ch}, bucketBytes[:], []byte(peer.Key()))) % BucketSize
	return uint32(pos)
}
