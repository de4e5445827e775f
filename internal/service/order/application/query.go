// internal/service/order/application/query.go
package application

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"ordercore/internal/service/order/domain"
)

// QueryService 是订单的只读查询侧，只依赖仓储。
type QueryService struct {
	repo   domain.OrderRepository
	tracer trace.Tracer
}

// NewQueryService 创建查询服务。
func NewQueryService(repo domain.OrderRepository, tracer trace.Tracer) *QueryService {
	return &QueryService{repo: repo, tracer: tracer}
}

// GetOrder 按 ID 查询订单。
func (q *QueryService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderView, error) {
	ctx, span := q.tracer.Start(ctx, "app.GetOrder")
	defer span.End()

	order, err := q.repo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return ToOrderView(order), nil
}

// ListCustomerOrders 按客户分页查询订单。
func (q *QueryService) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, query domain.PageQuery) (*OrderPageView, error) {
	ctx, span := q.tracer.Start(ctx, "app.ListCustomerOrders")
	defer span.End()

	if query.Size <= 0 {
		query.Size = 20
	}
	if query.Page < 0 {
		query.Page = 0
	}
	if query.SortBy == "" {
		query.SortBy = "createdAt"
		query.SortDesc = true
	}

	page, err := q.repo.FindByCustomer(ctx, customerID, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	views := make([]*OrderView, 0, len(page.Orders))
	for _, order := range page.Orders {
		views = append(views, ToOrderView(order))
	}
	return &OrderPageView{
		Content: views,
		Page:    page.Page,
		Size:    page.Size,
		Total:   page.Total,
	}, nil
}
