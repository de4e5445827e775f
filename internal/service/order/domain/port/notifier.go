// internal/service/order/domain/port/notifier.go
package port

import (
	"context"

	"ordercore/internal/service/order/domain"
)

// EventProducer 是订单创建事件的出站端口。
type EventProducer interface {
	// OrderCreated 发布订单创建成功事件。
	OrderCreated(ctx context.Context, event *domain.OrderCreatedEvent) error
}
