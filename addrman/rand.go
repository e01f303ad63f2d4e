package addrman

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand"

	ipfsutil "github.com/ipfs/go-ipfs-util"
)

// Source is the capability the core draws randomness from for bucket
// walks, rejection sampling, and reservoir shuffling. It is never a
// cryptographic requirement by itself (selection outcomes are not
// secret); the manager's 256-bit key K is what must come from a CSPRNG,
// and that is generated separately in newManagerKey.
type Source interface {
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
	// Int63n returns a uniform value in [0, n) for n larger than an int.
	Int63n(n int64) int64
	// Uint32n returns the low `bits` bits of a random 32-bit word, used for the log2(bucket_count)-bit walk steps.
	Uint32n(bits uint) uint32
}

// mathRandSource adapts *math/rand.Rand to Source.
type mathRandSource struct {
	r *mrand.Rand
}

// NewSource returns the default, non-cryptographic Source used in
// production: a math/rand generator seeded from an IPFS
// time-seeded entropy reader, matching the pattern used elsewhere in
// the IPFS/libp2p ecosystem for seeding non-cryptographic generators.
func NewSource() Source {
	return &mathRandSource{r: mrand.New(mrand.NewSource(seedFromReader(ipfsutil.NewTimeSeededRand())))}
}

func seedFromReader(r io.Reader) int64 {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		// Entropy reader never legitimately fails; fall back to a
		// fixed seed rather than panicking the caller.
		return 1
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

func (s *mathRandSource) Intn(n int) int         { return s.r.Intn(n) }
func (s *mathRandSource) Int63n(n int64) int64   { return s.r.Int63n(n) }
func (s *mathRandSource) Uint32n(bits uint) uint32 {
	return s.r.Uint32() & ((1 << bits) - 1)
}

// newManagerKey generates the manager's 256-bit secret key from a
// cryptographically secure source, as required by spec: bucket
// placement must be unpredictable to peers even though it is
// deterministic for a fixed key.
func newManagerKey() ([32]byte, error) {
	var key [32]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, err
	}
	return key, nil
}
