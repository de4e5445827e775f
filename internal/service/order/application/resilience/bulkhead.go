// internal/service/order/application/resilience/bulkhead.go
package resilience

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBulkheadFull 表示并发准入名额耗尽，且在允许的等待时间内没有释放。
var ErrBulkheadFull = errors.New("bulkhead has no free permits")

// Bulkhead 限制同时在途的管线执行数。
// 超出容量的请求最多等待 maxWait，之后被拒绝而不是无限排队。
type Bulkhead struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
}

// NewBulkhead 创建一个容量为 capacity 的准入限制器。
func NewBulkhead(capacity int64, maxWait time.Duration) *Bulkhead {
	return &Bulkhead{
		sem:     semaphore.NewWeighted(capacity),
		maxWait: maxWait,
	}
}

// Acquire 尝试获取一个准入名额。
// 调用方 ctx 先取消或等待超时都会得到 ErrBulkheadFull。
func (b *Bulkhead) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()
	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		return ErrBulkheadFull
	}
	return nil
}

// Release 归还一个准入名额。
func (b *Bulkhead) Release() {
	b.sem.Release(1)
}
