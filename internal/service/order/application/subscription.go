// internal/service/order/application/subscription.go
package application

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ordercore/internal/pkg/logger"
	"ordercore/internal/service/order/domain"
	"ordercore/internal/service/order/domain/port"
)

// statusEventName 是推送给订阅者的事件名。
const statusEventName = "order-status"

// Registry 维护订单 ID 到活跃推送通道的映射。
// 每个订单 ID 同一时刻至多一个通道；对同一 ID 的新订阅会原子性地
// 替换旧通道（旧通道被正常关闭）。注册表被创建管线和订阅入口共享，
// 必须支持并发读写。
type Registry struct {
	mu       sync.Mutex
	channels map[uuid.UUID]port.PushChannel
}

// NewRegistry 创建一个空的订阅注册表。
func NewRegistry() *Registry {
	return &Registry{channels: make(map[uuid.UUID]port.PushChannel)}
}

// Add 插入或替换指定订单的推送通道，整个操作是原子的。
// 被替换下来的旧通道在锁外关闭，避免慢消费者阻塞注册表。
func (r *Registry) Add(orderID uuid.UUID, ch port.PushChannel) {
	r.mu.Lock()
	prior := r.channels[orderID]
	r.channels[orderID] = ch
	r.mu.Unlock()

	if prior != nil && prior != ch {
		prior.Complete()
	}
}

// Remove 在当前映射仍然指向 ch 时移除它。
// 带通道比较是为了避免误删同一订单上后来的替换通道。
func (r *Registry) Remove(orderID uuid.UUID, ch port.PushChannel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.channels[orderID]; ok && current == ch {
		delete(r.channels, orderID)
	}
}

// Publish 向订单的活跃通道推送一次状态更新。
// 推送失败视为通道已失效：移除映射并以错误关闭通道。
func (r *Registry) Publish(orderID uuid.UUID, status domain.Status) {
	r.mu.Lock()
	ch, ok := r.channels[orderID]
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := ch.Send(statusEventName, uuid.New().String(), statusPayload(status)); err != nil {
		logger.Logger.Warn().Err(err).
			Str("order_id", orderID.String()).
			Msg("Status push failed, dropping subscription")
		r.Remove(orderID, ch)
		ch.CompleteWithError(err)
	}
}

// Size 返回当前活跃订阅数（测试与监控用）。
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

func statusPayload(status domain.Status) string {
	return fmt.Sprintf(`{"status":%q}`, string(status))
}
