// internal/service/order/infrastructure/mysql.go
package infrastructure

import (
	"context"
	stderrors "errors"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"ordercore/internal/service/order/domain"
)

// sortColumns 是按客户查询时允许的排序字段白名单。
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"totalAmount": "total_amount",
	"status":      "status",
}

// GormOrderRepository 是 domain.OrderRepository 的 GORM/MySQL 实现。
// 并发写通过版本守卫解决：更新语句带上读取时的版本号，
// 影响行数为零即判定为乐观锁冲突。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例。
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate 建表（本地与测试环境用，生产走独立迁移流程）。
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&OrderModel{}, &OrderItemModel{})
}

// Save 持久化订单聚合。
// 记录不存在时执行插入；存在时执行带版本守卫的更新并递增版本。
// 主键 / 唯一键冲突返回 domain.ErrDuplicateOrder，
// 版本不匹配返回 domain.ErrVersionConflict。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	saved := *order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&OrderModel{}).Where("id = ?", order.ID.String()).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check order existence")
		}

		if count == 0 {
			if err := tx.Create(toModel(order)).Error; err != nil {
				if isDuplicateKey(err) {
					return domain.ErrDuplicateOrder
				}
				return errors.Wrap(err, "insert order")
			}
			return nil
		}

		res := tx.Model(&OrderModel{}).
			Where("id = ? AND version = ?", order.ID.String(), order.Version).
			Updates(map[string]interface{}{
				"status":       string(order.Status),
				"total_amount": order.TotalAmount,
				"version":      order.Version + 1,
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update order")
		}
		if res.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}
		saved.Version = order.Version + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// FindByID 根据 ID 加载订单聚合（含条目）。
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id.String()).First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "query order")
	}
	return toDomain(&model)
}

// FindByCustomer 按客户分页查询订单。
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, query domain.PageQuery) (*domain.OrderPage, error) {
	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if query.SortDesc {
		direction = "DESC"
	}

	var total int64
	err := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("customer_id = ?", customerID.String()).
		Count(&total).Error
	if err != nil {
		return nil, errors.Wrap(err, "count customer orders")
	}

	var models []OrderModel
	err = r.db.WithContext(ctx).
		Where("customer_id = ?", customerID.String()).
		Preload("Items").
		Order(column + " " + direction).
		Offset(query.Page * query.Size).
		Limit(query.Size).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "query customer orders")
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		order, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return &domain.OrderPage{
		Orders: orders,
		Page:   query.Page,
		Size:   query.Size,
		Total:  total,
	}, nil
}

// UpdateStatus 更新订单状态，返回受影响的行数。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (int64, error) {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", id.String()).
		Update("status", string(status))
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "update order status")
	}
	return res.RowsAffected, nil
}

// isDuplicateKey 识别 MySQL 1062（唯一键冲突）。
func isDuplicateKey(err error) bool {
	var mysqlErr *mysqldrv.MySQLError
	if stderrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
