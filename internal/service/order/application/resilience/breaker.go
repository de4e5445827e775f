// internal/service/order/application/resilience/breaker.go
package resilience

import (
	"errors"
	"sync"
	"time"

	"ordercore/internal/service/order/domain"
)

// ErrCircuitOpen 表示熔断器处于打开状态，调用被直接拒绝。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State 是熔断器的状态机状态。
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// BreakerConfig 是熔断器的全部可调参数。
// 阈值基于最近 WindowSize 次已完成调用的滑动计数窗口计算，
// 样本数不足 MinCalls 时不做任何判断。
type BreakerConfig struct {
	WindowSize           int
	MinCalls             int
	FailureRateThreshold float64       // 如 0.5 表示 50%
	SlowCallThreshold    time.Duration // 超过该耗时的调用视为慢调用
	SlowRateThreshold    float64
	OpenStateDuration    time.Duration // 打开状态的冷却时间
	HalfOpenProbes       int           // 半开状态允许的探测调用数
}

type callOutcome struct {
	failed bool
	slow   bool
}

// CircuitBreaker 是一个基于滑动计数窗口的熔断器。
// 时钟通过构造函数注入，所有状态迁移都是确定性的、可单元测试的。
type CircuitBreaker struct {
	cfg   BreakerConfig
	clock domain.Clock

	mu       sync.Mutex
	state    State
	window   []callOutcome
	next     int
	filled   int
	openedAt time.Time

	probesIssued  int
	probesDone    int
	probeFailures int
}

// NewCircuitBreaker 创建一个处于关闭状态的熔断器。
func NewCircuitBreaker(cfg BreakerConfig, clock domain.Clock) *CircuitBreaker {
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &CircuitBreaker{
		cfg:    cfg,
		clock:  clock,
		state:  StateClosed,
		window: make([]callOutcome, cfg.WindowSize),
	}
}

// State 返回当前状态（测试与监控用）。
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Allow 判断当前调用是否被放行。
// 打开状态在冷却期结束后自动迁移到半开，并放行有限的探测流量。
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.cfg.OpenStateDuration {
			return ErrCircuitOpen
		}
		cb.toHalfOpen()
		cb.probesIssued++
		return nil
	case StateHalfOpen:
		if cb.probesIssued >= cb.cfg.HalfOpenProbes {
			return ErrCircuitOpen
		}
		cb.probesIssued++
		return nil
	}
	return nil
}

// Record 登记一次已完成调用的结果。
// 耗时超过 SlowCallThreshold 的调用按慢调用计入，即便它成功了。
func (cb *CircuitBreaker) Record(elapsed time.Duration, failed bool) {
	slow := cb.cfg.SlowCallThreshold > 0 && elapsed >= cb.cfg.SlowCallThreshold

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.probesDone++
		if failed || slow {
			cb.probeFailures++
		}
		if cb.probesDone >= cb.cfg.HalfOpenProbes {
			rate := float64(cb.probeFailures) / float64(cb.probesDone)
			if rate >= cb.cfg.FailureRateThreshold {
				cb.toOpen()
			} else {
				cb.toClosed()
			}
		}
	case StateClosed:
		cb.window[cb.next] = callOutcome{failed: failed, slow: slow}
		cb.next = (cb.next + 1) % len(cb.window)
		if cb.filled < len(cb.window) {
			cb.filled++
		}
		if cb.shouldTrip() {
			cb.toOpen()
		}
	case StateOpen:
		// 打开前已派发的在途调用，其结果被丢弃
	}
}

// shouldTrip 在持锁状态下评估窗口内的失败率与慢调用率。
func (cb *CircuitBreaker) shouldTrip() bool {
	if cb.filled < cb.cfg.MinCalls {
		return false
	}
	var failures, slows int
	for i := 0; i < cb.filled; i++ {
		if cb.window[i].failed {
			failures++
		}
		if cb.window[i].slow {
			slows++
		}
	}
	total := float64(cb.filled)
	if float64(failures)/total >= cb.cfg.FailureRateThreshold {
		return true
	}
	return cb.cfg.SlowRateThreshold > 0 && float64(slows)/total >= cb.cfg.SlowRateThreshold
}

func (cb *CircuitBreaker) toOpen() {
	cb.state = StateOpen
	cb.openedAt = cb.clock.Now()
	cb.resetWindow()
}

func (cb *CircuitBreaker) toHalfOpen() {
	cb.state = StateHalfOpen
	cb.probesIssued = 0
	cb.probesDone = 0
	cb.probeFailures = 0
}

func (cb *CircuitBreaker) toClosed() {
	cb.state = StateClosed
	cb.resetWindow()
}

func (cb *CircuitBreaker) resetWindow() {
	for i := range cb.window {
		cb.window[i] = callOutcome{}
	}
	cb.next = 0
	cb.filled = 0
}
