// internal/service/order/domain/command.go
package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommandItem 是创建订单命令中的一个条目。
// ProductID 此时还是调用方传入的原始字符串，合法性由工厂校验。
type CommandItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrderCommand 是创建订单的输入命令，构造后不可变。
type CreateOrderCommand struct {
	CustomerID      uuid.UUID
	Items           []CommandItem
	ShippingAddress string
	PaymentMethodID string
	IdempotencyKey  string
}

// CacheKey 返回该命令在幂等缓存中的键。
// 同一客户 + 同一幂等键的两次请求必须落在同一个缓存条目上。
func (c *CreateOrderCommand) CacheKey() string {
	return fmt.Sprintf("order:create:%s:%s", c.CustomerID, c.IdempotencyKey)
}
