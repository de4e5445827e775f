// internal/service/order/domain/clock.go
package domain

import "time"

// Clock 抽象了时间来源，使订单创建时间在测试中可以完全确定。
type Clock interface {
	Now() time.Time
}

// SystemClock 是生产环境使用的真实时钟。
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
