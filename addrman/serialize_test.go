package addrman

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(30, now)

	for i := 0; i < 500; i++ {
		p := mustEndpoint(i, now)
		s := mustEndpoint(i+1<<20, now)
		c.addToNewTable(p, s, 0)
		if i%5 == 0 {
			c.markGood(p, false, now)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, c.serialize(&buf))

	restored, err := c.unserializeFrom(&buf)
	require.NoError(t, err)

	assert.Equal(t, c.newCount, restored.newCount)
	assert.Equal(t, c.triedCount, restored.triedCount)
	assert.Equal(t, c.size(), restored.size())
	assert.Equal(t, c.key, restored.key)
}

func TestUnserializeRejectsBucketCountMismatch(t *testing.T) {
	c := newTestCore(31, time.Now())
	data := "123\n0\n0\n7\n"
	_, err := c.unserializeFrom(bytes.NewBufferString(data))
	assert.ErrorIs(t, err, ErrBucketCountMismatch)
}

func TestUnserializeRejectsTruncatedInput(t *testing.T) {
	c := newTestCore(32, time.Now())
	_, err := c.unserializeFrom(bytes.NewBufferString("123\n"))
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestUnserializeLeavesOriginalUntouchedOnFailure(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCore(33, now)
	p := mustEndpoint(1, now)
	s := mustEndpoint(2, now)
	c.addToNewTable(p, s, 0)

	before := c.size()
	_, err := c.unserializeFrom(bytes.NewBufferString("not-a-number\n"))
	require.Error(t, err)
	assert.Equal(t, before, c.size())
}
