// internal/service/order/application/dto.go
package application

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ordercore/internal/service/order/domain"
)

// CreateOrderRequest 是创建订单用例的输入数据。
type CreateOrderRequest struct {
	CustomerID      string             `json:"customerId"`
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress string             `json:"shippingAddress"`
	PaymentMethodID string             `json:"paymentMethodId"`
	IdempotencyKey  string             `json:"idempotencyKey"`
}

// OrderItemRequest 是请求中的一个订单条目。
type OrderItemRequest struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ToCommand 把请求 DTO 转换为领域命令。
// CustomerID 必须是合法的 UUID，这是接口层唯一做的格式约束。
func (r *CreateOrderRequest) ToCommand() (*domain.CreateOrderCommand, error) {
	customerID, err := uuid.Parse(r.CustomerID)
	if err != nil {
		return nil, domain.NewConstructionError("malformed customer id %q", r.CustomerID)
	}
	items := make([]domain.CommandItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.CommandItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return &domain.CreateOrderCommand{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: r.ShippingAddress,
		PaymentMethodID: r.PaymentMethodID,
		IdempotencyKey:  r.IdempotencyKey,
	}, nil
}

// OrderView 是查询侧返回的订单视图。
type OrderView struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customerId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   string          `json:"createdAt"`
}

// ToOrderView 从聚合构造查询视图。
func ToOrderView(order *domain.Order) *OrderView {
	return &OrderView{
		ID:          order.ID.String(),
		CustomerID:  order.CustomerID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// OrderPageView 是一页订单视图。
type OrderPageView struct {
	Content []*OrderView `json:"content"`
	Page    int          `json:"page"`
	Size    int          `json:"size"`
	Total   int64        `json:"total"`
}
