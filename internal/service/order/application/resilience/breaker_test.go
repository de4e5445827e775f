package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *manualClock) *CircuitBreaker {
	return NewCircuitBreaker(BreakerConfig{
		WindowSize:           10,
		MinCalls:             5,
		FailureRateThreshold: 0.5,
		SlowCallThreshold:    2 * time.Second,
		SlowRateThreshold:    0.5,
		OpenStateDuration:    30 * time.Second,
		HalfOpenProbes:       3,
	}, clock)
}

func TestBreakerStaysClosedBelowMinCalls(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	cb := newTestBreaker(clock)

	// 4 次失败，样本数不足 MinCalls，不触发熔断
	for i := 0; i < 4; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(10*time.Millisecond, true)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerTripsOnFailureRate(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	cb := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(10*time.Millisecond, true)
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestBreakerTripsOnSlowCallRate(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	cb := newTestBreaker(clock)

	// 全部成功但全部是慢调用
	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(3*time.Second, false)
	}
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerHalfOpenRecoversAfterHealthyProbes(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	cb := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		cb.Record(10*time.Millisecond, true)
	}
	require.Equal(t, StateOpen, cb.State())

	// 冷却期内拒绝
	clock.Advance(29 * time.Second)
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	// 冷却期过后进入半开，放行有限探测
	clock.Advance(2 * time.Second)
	require.NoError(t, cb.Allow())
	require.NoError(t, cb.Allow())
	require.NoError(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	// 探测额度用尽后继续拒绝
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	// 全部探测成功 => 回到关闭
	cb.Record(10*time.Millisecond, false)
	cb.Record(10*time.Millisecond, false)
	cb.Record(10*time.Millisecond, false)
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestBreakerHalfOpenReopensOnFailedProbes(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	cb := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		cb.Record(10*time.Millisecond, true)
	}
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(31 * time.Second)
	require.NoError(t, cb.Allow())
	require.NoError(t, cb.Allow())
	require.NoError(t, cb.Allow())

	cb.Record(10*time.Millisecond, true)
	cb.Record(10*time.Millisecond, true)
	cb.Record(10*time.Millisecond, false)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestBreakerWindowResetOnRecovery(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	cb := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		cb.Record(10*time.Millisecond, true)
	}
	clock.Advance(31 * time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(10*time.Millisecond, false)
	}
	require.Equal(t, StateClosed, cb.State())

	// 恢复后窗口清空：历史失败不应影响新一轮统计
	for i := 0; i < 4; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(10*time.Millisecond, true)
	}
	assert.Equal(t, StateClosed, cb.State())
}
