// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound 订单不存在。
	ErrOrderNotFound = errors.New("order not found")

	// ErrVersionConflict 乐观锁版本冲突：记录在读取后被并发写入修改过。
	// 这是可恢复错误，管线会在有限次数内重读并重试。
	ErrVersionConflict = errors.New("order version conflict")

	// ErrDuplicateOrder 完整性约束冲突（如主键重复）。
	// 重试同一写入无法恢复，必须立即以失败结果上抛。
	ErrDuplicateOrder = errors.New("duplicate order")
)

// ConstructionError 表示命令无法构造出合法的订单聚合。
// 工厂对畸形输入返回该错误而不是 panic。
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct order: %s", e.Reason)
}

// NewConstructionError 创建一个带格式化原因的构造错误。
func NewConstructionError(format string, args ...interface{}) *ConstructionError {
	return &ConstructionError{Reason: fmt.Sprintf(format, args...)}
}
