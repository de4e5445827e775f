// internal/service/order/domain/factory.go
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Factory 负责从命令构造不可变的订单聚合。
// 除生成的 ID 外，构造结果是命令与时钟的纯函数：
// 相同的命令 + 相同的时钟读数 => 相同的订单内容。
type Factory struct {
	clock Clock
}

// NewFactory 创建一个订单工厂。
func NewFactory(clock Clock) *Factory {
	return &Factory{clock: clock}
}

// Build 构造一个状态为 PENDING、版本为 0 的新订单。
// 金额使用精确十进制运算：行小计 = 单价 × 数量，总额 = 行小计之和。
// 任何畸形输入都返回 *ConstructionError，绝不 panic。
func (f *Factory) Build(cmd *CreateOrderCommand) (*Order, error) {
	if cmd == nil {
		return nil, NewConstructionError("command is nil")
	}
	if cmd.CustomerID == uuid.Nil {
		return nil, NewConstructionError("customer id is empty")
	}
	if len(cmd.Items) == 0 {
		return nil, NewConstructionError("order has no items")
	}

	items := make([]OrderItem, 0, len(cmd.Items))
	total := decimal.Zero
	for i, in := range cmd.Items {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			return nil, NewConstructionError("item %d has malformed product id %q", i, in.ProductID)
		}
		if in.Quantity <= 0 {
			return nil, NewConstructionError("item %d has non-positive quantity %d", i, in.Quantity)
		}
		if in.UnitPrice.IsNegative() {
			return nil, NewConstructionError("item %d has negative unit price %s", i, in.UnitPrice)
		}

		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		items = append(items, OrderItem{
			ProductID: productID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return &Order{
		ID:              uuid.New(),
		CustomerID:      cmd.CustomerID,
		Items:           items,
		Status:          StatusPending,
		TotalAmount:     total,
		ShippingAddress: cmd.ShippingAddress,
		CreatedAt:       f.clock.Now(),
		Version:         0,
	}, nil
}
