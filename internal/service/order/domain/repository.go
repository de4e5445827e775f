// internal/service/order/domain/repository.go
package domain

import (
	"context"

	"github.com/google/uuid"
)

// PageQuery 描述按客户查询订单时的分页与排序要求。
type PageQuery struct {
	Page     int
	Size     int
	SortBy   string // createdAt / totalAmount / status
	SortDesc bool
}

// OrderPage 是一页查询结果。
type OrderPage struct {
	Orders []*Order
	Page   int
	Size   int
	Total  int64
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Save 持久化一个订单聚合。
	// 记录不存在时执行插入；存在时执行带版本守卫的更新并递增版本。
	// 版本不匹配返回 ErrVersionConflict，完整性约束冲突返回 ErrDuplicateOrder。
	// 更新成功后返回的订单携带递增后的版本号。
	Save(ctx context.Context, order *Order) (*Order, error)

	// FindByID 根据 ID 查找一个订单聚合，不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByCustomer 按客户分页查询订单。
	FindByCustomer(ctx context.Context, customerID uuid.UUID, query PageQuery) (*OrderPage, error)

	// UpdateStatus 更新订单状态，返回受影响的行数。
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error)
}
