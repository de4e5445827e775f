// internal/service/order/domain/port/authority.go
package port

import (
	"context"

	"ordercore/internal/service/order/domain"
)

// InventoryAuthority 是库存校验服务的出站端口。
// 调用可能超时或失败；失败策略由编排器决定，不在适配器内兜底。
type InventoryAuthority interface {
	CheckAvailability(ctx context.Context, items []domain.CommandItem) (bool, error)
}

// CustomerAuthority 是客户校验服务的出站端口。
type CustomerAuthority interface {
	ValidateCustomer(ctx context.Context, customerID string) (bool, error)
}

// PaymentAuthority 是支付方式校验服务的出站端口。
type PaymentAuthority interface {
	ValidatePaymentMethod(ctx context.Context, customerID, paymentMethodID string) (bool, error)
}
