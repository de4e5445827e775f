// internal/service/order/domain/event.go
package domain

import "time"

// OrderCreatedEvent 是订单成功持久化后对外广播的领域事件。
// 事件发布在独立的执行上下文中进行，失败只记录、不回传给创建方。
type OrderCreatedEvent struct {
	OrderID     string    `json:"orderId"`
	CustomerID  string    `json:"customerId"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewOrderCreatedEvent 从聚合构造事件载荷。
// 金额以字符串承载，避免下游消费者做浮点解析时丢失精度。
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		OrderID:     order.ID.String(),
		CustomerID:  order.CustomerID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.String(),
		CreatedAt:   order.CreatedAt,
	}
}
