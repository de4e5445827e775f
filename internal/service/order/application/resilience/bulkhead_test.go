package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkheadAcquireRelease(t *testing.T) {
	b := NewBulkhead(2, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx))
	require.NoError(t, b.Acquire(ctx))

	// 名额耗尽：在 maxWait 内没有释放就拒绝
	assert.ErrorIs(t, b.Acquire(ctx), ErrBulkheadFull)

	b.Release()
	assert.NoError(t, b.Acquire(ctx))

	b.Release()
	b.Release()
}

func TestBulkheadAcquireWaitsForPermit(t *testing.T) {
	b := NewBulkhead(1, 500*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx))
	go func() {
		time.Sleep(50 * time.Millisecond)
		b.Release()
	}()

	// 等待时间内有名额释放，应当成功而不是拒绝
	assert.NoError(t, b.Acquire(ctx))
	b.Release()
}

func TestBulkheadHonorsCallerCancellation(t *testing.T) {
	b := NewBulkhead(1, time.Minute)
	require.NoError(t, b.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Acquire(ctx), ErrBulkheadFull)

	b.Release()
}
