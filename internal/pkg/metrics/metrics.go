// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 管线中使用的计数事件名。每个失败策略分支都有独立的计数器，
// 保证告警可以区分"熔断拒绝"和"真正的创建失败"。
const (
	CacheHit                = "cache_hit"
	CreatedSuccess          = "created_success"
	ValidationTimeout       = "validation_timeout"
	CreationError           = "creation_error"
	SaveRetry               = "save_retry"
	SaveIntegrityError      = "save_integrity_error"
	EventPublished          = "event_published"
	EventPublishError       = "event_publish_error"
	CircuitBreakerActivated = "circuit_breaker_activated"
	BulkheadRejected        = "bulkhead_rejected"
	PipelineTimeout         = "pipeline_timeout"
)

// Counters 是一个只增不减的事件计数器集合。
// Increment 从不阻塞调用方，符合 fire-and-forget 的埋点契约。
type Counters struct {
	events *prometheus.CounterVec
}

// NewCounters 创建计数器并注册到指定的 Registerer。
func NewCounters(reg prometheus.Registerer) *Counters {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_service",
		Name:      "events_total",
		Help:      "Cumulative count of order pipeline events by name.",
	}, []string{"event"})
	reg.MustRegister(events)
	return &Counters{events: events}
}

// Increment 增加指定事件的计数。
func (c *Counters) Increment(name string) {
	c.events.WithLabelValues(name).Inc()
}
