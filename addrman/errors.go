package addrman

import "errors"

// Sentinel errors surfaced to callers. Mutation/selection paths never
// return errors for "not found" or "rejected" conditions — those are
// silent no-ops per the manager's error-handling rules — these are
// reserved for the persistence boundary and constructor misuse.
var (
	// ErrNoHost is returned when an endpoint with an empty host is
	// passed to a constructor that cannot silently ignore it.
	ErrNoHost = errors.New("addrman: endpoint has no host")
	// ErrNoPort is returned when an endpoint has port 0.
	ErrNoPort = errors.New("addrman: endpoint has no port")

	// ErrCorruptState is wrapped around any failure to parse a
	// persisted address-manager file.
	ErrCorruptState = errors.New("addrman: corrupt persisted state")
	// ErrBucketCountMismatch indicates a persisted file was written
	// with a different NewBucketCount than this build uses.
	ErrBucketCountMismatch = errors.New("addrman: persisted bucket count mismatch")
)
