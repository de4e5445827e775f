// internal/service/order/domain/port/channel.go
package port

// PushChannel 是面向单个订阅者的推送通道。
// 具体实现（WebSocket、SSE、测试桩）由接口层提供。
type PushChannel interface {
	// Send 推送一条命名事件。event 是事件名，id 用于客户端去重，
	// payload 是字符串载荷。
	Send(event, id, payload string) error

	// Complete 正常关闭通道。
	Complete()

	// CompleteWithError 以错误原因关闭通道。
	CompleteWithError(err error)
}
