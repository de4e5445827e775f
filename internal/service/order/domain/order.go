// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem 是订单中的一个条目（值对象）。
// LineTotal 在构造时由工厂计算，等于 UnitPrice × Quantity，精确十进制运算。
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Order 是订单聚合的根实体。
// 只能由工厂创建；持久化成功后仅由仓储负责递增 Version。
type Order struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customerId"`
	Items           []OrderItem     `json:"items"`
	Status          Status          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress string          `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	Version         int64           `json:"version"`
}
