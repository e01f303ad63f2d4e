package addrman

import (
	"fmt"
	mrand "math/rand"
	"time"
)

// fakeClock is a manually advanced Clock for deterministic tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// seededSource wraps a seeded math/rand generator so test runs are
// reproducible without touching process-global randomness.
func seededSource(seed int64) Source {
	return &mathRandSource{r: mrand.New(mrand.NewSource(seed))}
}

func newTestCore(seed int64, now time.Time) *core {
	c, err := newCore(newFakeClock(now), seededSource(seed))
	if err != nil {
		panic(err)
	}
	return c
}

func mustEndpoint(i int, now time.Time) Endpoint {
	return Endpoint{Host: fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xff, (i>>8)&0xff, i&0xff), Port: 8333, Timestamp: now}
}
