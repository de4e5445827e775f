// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending   Status = "PENDING"   // 创建成功，等待后续履约流程
	StatusConfirmed Status = "CONFIRMED" // 已确认
	StatusShipped   Status = "SHIPPED"   // 已发货
	StatusCancelled Status = "CANCELLED" // 已取消
	StatusFailed    Status = "FAILED"    // 处理失败
)

// ParseStatus 把外部输入解析为已知的订单状态。
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusShipped, StatusCancelled, StatusFailed:
		return Status(s), nil
	}
	return "", NewConstructionError("unknown order status %q", s)
}
