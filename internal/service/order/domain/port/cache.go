// internal/service/order/domain/port/cache.go
package port

import (
	"context"
	"time"

	"ordercore/internal/service/order/domain"
)

// ResultCache 是幂等结果缓存的出站端口。
// 缓存是性能优化而不是正确性依赖：实现必须把读失败降级为未命中、
// 把写失败吞掉并记录日志，任何情况下都不能让缓存故障影响请求结果。
type ResultCache interface {
	// Get 查询缓存，第二个返回值表示是否命中。
	Get(ctx context.Context, key string) (domain.OrderResult, bool)

	// Put 写入缓存并设置过期时间。
	Put(ctx context.Context, key string, result domain.OrderResult, ttl time.Duration)

	// Evict 删除单个键。
	Evict(ctx context.Context, key string)

	// EvictPattern 按模式批量删除，尽力而为。
	EvictPattern(ctx context.Context, pattern string)
}
