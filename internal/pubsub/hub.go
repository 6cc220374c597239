package pubsub

import (
	"sync"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventNewLog         = "new-log"
	EventSessionUpdated = "session-updated"
)

// Event 推送给订阅者的事件，按项目分发
type Event struct {
	Type      string      `json:"type"`
	ProjectID string      `json:"project_id"`
	Payload   interface{} `json:"payload"`
}

// Broadcaster 事件广播能力。入库成功后由服务层调用，
// 广播失败不影响入库结果。
type Broadcaster interface {
	Publish(projectID string, event Event)
}

// subscriberBuffer 每个订阅者的事件缓冲大小，写满即丢弃
const subscriberBuffer = 16

// Hub 进程内按项目分组的事件广播器。
// 投递尽力而为：Publish 不阻塞，缓冲已满的订阅者会丢事件，
// 不保证送达也不保证顺序。
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[string]map[int]chan Event // projectID -> 订阅者
	nextID int
}

var _ Broadcaster = (*Hub)(nil)

// NewHub 创建事件广播器
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[int]chan Event),
	}
}

// Subscribe 订阅指定项目的事件，返回事件通道和取消函数。
// 取消后通道会被关闭。
func (h *Hub) Subscribe(projectID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[int]chan Event)
	}

	id := h.nextID
	h.nextID++

	ch := make(chan Event, subscriberBuffer)
	h.subs[projectID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subs[projectID]; ok {
			if c, ok := subs[id]; ok {
				delete(subs, id)
				close(c)
				if len(subs) == 0 {
					delete(h.subs, projectID)
				}
			}
		}
	}
	return ch, cancel
}

// Publish 向项目的所有订阅者投递事件，从不阻塞
func (h *Hub) Publish(projectID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[projectID] {
		select {
		case ch <- event:
		default:
			// 订阅者消费太慢，直接丢弃
			h.logger.Debug("dropping event for slow subscriber",
				zap.String("project_id", projectID),
				zap.Int("subscriber", id),
				zap.String("type", event.Type))
		}
	}
}

// SubscriberCount 指定项目当前的订阅者数量
func (h *Hub) SubscriberCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[projectID])
}
