// Package addrman implements a peer address manager for a p2p overlay:
// a stateful, persistent directory of network endpoints, bucketed
// across "new" (unverified) and "tried" (contacted) tables using
// double-hashed, key-salted bucket placement in the style of Bitcoin
// Core's CAddrMan.
//
// The package is split into an unsynchronized core (core)
// and a concurrency wrapper (Manager) that serializes access to it
// behind a single mutex. Callers should use Manager; the unexported
// core exists so the bucket math and mutation rules can be tested
// without any locking concerns.
package addrman
