package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5, "solana")

	require.NotNil(t, l)
	require.NotNil(t, l.limiter)
	assert.Equal(t, "solana", l.chain)

	assert.InDelta(t, 10.0, float64(l.limiter.Limit()), 0.001)
	assert.Equal(t, 5, l.limiter.Burst())
}

func TestLimiter_AllowWithinBurst(t *testing.T) {
	const burst = 5
	l := NewLimiter(100, burst, "solana")

	ctx := context.Background()

	// All requests within the burst capacity should succeed immediately.
	for i := 0; i < burst; i++ {
		start := time.Now()
		err := l.Wait(ctx)
		elapsed := time.Since(start)

		require.NoError(t, err, "request %d should not error", i)
		assert.Less(t, elapsed, 50*time.Millisecond,
			"request %d should complete immediately, took %v", i, elapsed)
	}
}

func TestLimiter_WaitWhenExhausted(t *testing.T) {
	// 1 token every 100ms; after the burst token, the next call must wait.
	l := NewLimiter(10.0, 1, "solana")

	ctx := context.Background()

	err := l.Wait(ctx)
	require.NoError(t, err)

	start := time.Now()
	err = l.Wait(ctx)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond,
		"should have waited for a token, but only took %v", elapsed)
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := NewLimiter(1.0, 1, "solana")

	// Exhaust the burst token.
	err := l.Wait(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = l.Wait(ctx)
	require.Error(t, err, "should return error when context is cancelled")
}

func TestClassifyRPCError(t *testing.T) {
	assert.Equal(t, "ok", ClassifyRPCError(nil))
	assert.Equal(t, "timeout", ClassifyRPCError(errors.New("context deadline exceeded")))
	assert.Equal(t, "rate_limited", ClassifyRPCError(errors.New("http status 429: Too Many Requests")))
	assert.Equal(t, "server_error", ClassifyRPCError(errors.New("http status 503: unavailable")))
	assert.Equal(t, "network_error", ClassifyRPCError(errors.New("dial tcp: connection refused")))
	assert.Equal(t, "client_error", ClassifyRPCError(errors.New("invalid param")))
}
