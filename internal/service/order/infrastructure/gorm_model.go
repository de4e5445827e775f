// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ordercore/internal/service/order/domain"
)

// OrderModel 是订单聚合的数据库映射。
type OrderModel struct {
	ID              string          `gorm:"type:char(36);primaryKey"`
	CustomerID      string          `gorm:"type:char(36);index;not null"`
	Status          string          `gorm:"type:varchar(32);not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	ShippingAddress string          `gorm:"type:varchar(512)"`
	CreatedAt       time.Time       `gorm:"not null"`
	Version         int64           `gorm:"not null;default:0"`

	Items []OrderItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 是订单条目的数据库映射。
type OrderItemModel struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID   string          `gorm:"type:char(36);index;not null"`
	ProductID string          `gorm:"type:char(36);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(19,4);not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// toModel 把领域聚合转换为数据库模型。
func toModel(order *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemModel{
			OrderID:   order.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return &OrderModel{
		ID:              order.ID.String(),
		CustomerID:      order.CustomerID.String(),
		Status:          string(order.Status),
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
		Version:         order.Version,
		Items:           items,
	}
}

// toDomain 把数据库模型还原为领域聚合。
func toDomain(model *OrderModel) (*domain.Order, error) {
	id, err := uuid.Parse(model.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := uuid.Parse(model.CustomerID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, it := range model.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ProductID: productID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}

	return &domain.Order{
		ID:              id,
		CustomerID:      customerID,
		Items:           items,
		Status:          domain.Status(model.Status),
		TotalAmount:     model.TotalAmount,
		ShippingAddress: model.ShippingAddress,
		CreatedAt:       model.CreatedAt,
		Version:         model.Version,
	}, nil
}
