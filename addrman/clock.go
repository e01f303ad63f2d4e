package addrman

import "time"

// Clock supplies the current time to the core. Tests inject a fixed
// or stepped clock; production code uses SystemClock. The core never
// calls time.Now() directly, so that "now" defaults are evaluated at
// call time rather than frozen at process start.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }
