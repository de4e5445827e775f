// internal/service/order/application/resilience/governor.go
package resilience

import (
	"context"
	"time"

	"ordercore/internal/pkg/logger"
	"ordercore/internal/pkg/metrics"
	"ordercore/internal/service/order/domain"
)

// FallbackMessage 是熔断、拒绝或超时时返回给调用方的降级文案。
const FallbackMessage = "Order service temporarily unavailable. Please try again later."

// GovernorConfig 汇总了包裹整条管线的三层防护参数。
type GovernorConfig struct {
	Bulkhead BreakerlessBulkheadConfig
	Breaker  BreakerConfig
	Timeout  time.Duration // 整条管线的外层截止时间
}

// BreakerlessBulkheadConfig 是舱壁的独立参数。
type BreakerlessBulkheadConfig struct {
	Capacity int64
	MaxWait  time.Duration
}

// Governor 按固定顺序执行准入控制、熔断判断和整体超时。
// 它不包含任何业务逻辑，只是把策略组合成一个可替换的包装器。
type Governor struct {
	bulkhead *Bulkhead
	breaker  *CircuitBreaker
	timeout  time.Duration
	clock    domain.Clock
	counters *metrics.Counters
}

// NewGovernor 组装一个新的治理包装器。
func NewGovernor(cfg GovernorConfig, clock domain.Clock, counters *metrics.Counters) *Governor {
	return &Governor{
		bulkhead: NewBulkhead(cfg.Bulkhead.Capacity, cfg.Bulkhead.MaxWait),
		breaker:  NewCircuitBreaker(cfg.Breaker, clock),
		timeout:  cfg.Timeout,
		clock:    clock,
		counters: counters,
	}
}

// Breaker 暴露内部熔断器（监控与测试用）。
func (g *Governor) Breaker() *CircuitBreaker {
	return g.breaker
}

// Execute 在三层防护下执行 fn。
// 任何防护触发都返回降级结果并递增对应计数器，绝不向上抛错。
// 超过外层截止时间后，在途的 fn 不会被强行中止，但其结果被丢弃。
func (g *Governor) Execute(ctx context.Context, fn func(context.Context) domain.OrderResult) domain.OrderResult {
	if err := g.bulkhead.Acquire(ctx); err != nil {
		g.counters.Increment(metrics.BulkheadRejected)
		logger.Ctx(ctx).Warn().Msg("Order creation rejected by bulkhead")
		return domain.FailureResult(FallbackMessage)
	}

	if err := g.breaker.Allow(); err != nil {
		g.bulkhead.Release()
		g.counters.Increment(metrics.CircuitBreakerActivated)
		logger.Ctx(ctx).Warn().Msg("Order creation short-circuited by open circuit breaker")
		return domain.FailureResult(FallbackMessage)
	}

	execCtx, cancel := context.WithTimeout(ctx, g.timeout)
	start := g.clock.Now()
	resultCh := make(chan domain.OrderResult, 1)
	go func() {
		defer g.bulkhead.Release()
		defer cancel()
		resultCh <- fn(execCtx)
	}()

	select {
	case result := <-resultCh:
		// 业务拒绝（Fault 未置位）按正常完成统计，只有故障才计入失败
		g.breaker.Record(g.clock.Now().Sub(start), result.Fault)
		return result
	case <-execCtx.Done():
		g.breaker.Record(g.clock.Now().Sub(start), true)
		g.counters.Increment(metrics.PipelineTimeout)
		logger.Ctx(ctx).Warn().Msg("Order creation exceeded pipeline deadline")
		return domain.FailureResult(FallbackMessage)
	}
}
