// internal/service/order/interfaces/ws_channel.go
package interfaces

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ordercore/internal/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrChannelClosed 表示通道已经终结，不再接受推送。
var ErrChannelClosed = errors.New("push channel is closed")

type wsEvent struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Data  string `json:"data"`
}

// WSChannel 用一条 WebSocket 连接实现 port.PushChannel。
// 所有写操作都经由 writePump 串行化；连接的任何一端终结
// （正常完成、出错、客户端断开）都会触发一次且仅一次 onClose 回调，
// 订阅方借此清理注册表条目。
type WSChannel struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string

	mu       sync.Mutex
	onClose  func(err error)
	closeErr error
}

// NewWSChannel 包装一条已升级的 WebSocket 连接并启动读写泵。
func NewWSChannel(conn *websocket.Conn) *WSChannel {
	c := &WSChannel{
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c
}

// OnClose 注册通道终结回调。若通道已经终结则立即调用。
func (c *WSChannel) OnClose(fn func(err error)) {
	c.mu.Lock()
	select {
	case <-c.done:
		err := c.closeErr
		c.mu.Unlock()
		fn(err)
		return
	default:
	}
	c.onClose = fn
	c.mu.Unlock()
}

// Send 推送一条命名事件。通道已关闭或写缓冲打满时返回错误。
func (c *WSChannel) Send(event, id, payload string) error {
	data, err := json.Marshal(wsEvent{Event: event, ID: id, Data: payload})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrChannelClosed
	case c.send <- data:
		return nil
	default:
		// 写缓冲打满意味着消费者跟不上，按失效通道处理
		return ErrChannelClosed
	}
}

// Complete 正常关闭通道。
func (c *WSChannel) Complete() {
	c.terminate(websocket.CloseNormalClosure, "", nil)
}

// CompleteWithError 以错误原因关闭通道。
func (c *WSChannel) CompleteWithError(err error) {
	reason := "internal error"
	if err != nil {
		reason = err.Error()
	}
	c.terminate(websocket.ClosePolicyViolation, reason, err)
}

func (c *WSChannel) terminate(code int, reason string, err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.closeReason = reason
		c.closeErr = err
		close(c.done)
		fn := c.onClose
		c.mu.Unlock()
		if fn != nil {
			fn(err)
		}
	})
}

// writePump 把 send 缓冲中的消息写入连接，并维持心跳。
func (c *WSChannel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.terminate(websocket.CloseAbnormalClosure, "write failed", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.terminate(websocket.CloseAbnormalClosure, "ping failed", err)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
				logger.Logger.Debug().Err(err).Msg("Failed to write websocket close frame")
			}
			return
		}
	}
}

// readPump 只负责消费心跳与感知客户端断开。
func (c *WSChannel) readPump() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.terminate(websocket.CloseAbnormalClosure, "client gone", err)
			return
		}
	}
}
