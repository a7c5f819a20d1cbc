package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_EvictsIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(RateLimitConfig{Requests: 5, Window: time.Minute})
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	now = now.Add(idleBucketTTL + time.Second)
	l.Allow("c")
	require.Equal(t, 1, l.Len())
}
