package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Wait(t *testing.T) {
	t.Parallel()
	// 10 rps with burst 1: the second token arrives ~100ms after the first.
	l := New(Config{RequestsPerSecond: 10, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://www.bbc.com/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://www.bbc.com/b"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiter_HostsAreIndependent(t *testing.T) {
	t.Parallel()
	l := New(Config{RequestsPerSecond: 1, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://www.bbc.com/1"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://edition.CNN.com/1"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 2, l.Hosts())
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	t.Parallel()
	l := New(Config{})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Wait(ctx, "https://www.bbc.com/x"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_WaitHonoursCancel(t *testing.T) {
	t.Parallel()
	l := New(Config{RequestsPerSecond: 0.1, Burst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://www.bbc.com/"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx, "https://www.bbc.com/")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHostOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "www.bbc.com", hostOf("https://WWW.BBC.com/news"))
	assert.Equal(t, "unknown", hostOf("::bad"))
	assert.Equal(t, "unknown", hostOf("/relative"))
}
