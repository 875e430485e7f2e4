package scoring

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultWriteWait = 5 * time.Second

// subscriber serializes the writes to one connection.
type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscriber) writeLocked(msg any, wait time.Duration) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *subscriber) write(msg any, wait time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(msg, wait)
}

// Hub fans scoring updates out to the websocket clients watching a session. The hub
// lock only guards the session table; writes hold the subscriber's own lock and give
// up after writeWait.
type Hub struct {
	mu        sync.Mutex
	log       *zap.SugaredLogger
	writeWait time.Duration
	sessions  map[string]map[*websocket.Conn]*subscriber
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:       log,
		writeWait: defaultWriteWait,
		sessions:  make(map[string]map[*websocket.Conn]*subscriber),
	}
}

// Subscribe adds conn to the session and sends it the first message. Broadcasts that
// race with the subscription are delivered after the first message.
func (h *Hub) Subscribe(key string, conn *websocket.Conn, first any) error {
	sub := &subscriber{conn: conn}
	sub.mu.Lock()

	h.mu.Lock()
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*websocket.Conn]*subscriber)
	}
	h.sessions[key][conn] = sub
	h.mu.Unlock()

	err := sub.writeLocked(first, h.writeWait)
	sub.mu.Unlock()
	if err != nil {
		h.Unsubscribe(key, conn)
		return err
	}
	return nil
}

func (h *Hub) Unsubscribe(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(key, conn)
}

func (h *Hub) remove(key string, conn *websocket.Conn) {
	conns := h.sessions[key]
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.sessions, key)
	}
}

func (h *Hub) subscribers(key string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.Values(h.sessions[key])
}

// Broadcast sends msg to every client of the session. Clients that fail or stall past
// the write deadline are dropped.
func (h *Hub) Broadcast(key string, msg any) {
	for _, sub := range h.subscribers(key) {
		if err := sub.write(msg, h.writeWait); err != nil {
			h.log.Warnw("drop scoring subscriber", "key", key, "error", err)
			_ = sub.conn.Close()
			h.Unsubscribe(key, sub.conn)
		}
	}
}

// Close disconnects every client of the session.
func (h *Hub) Close(key string) {
	h.mu.Lock()
	subs := lo.Values(h.sessions[key])
	delete(h.sessions, key)
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finalized")
	for _, sub := range subs {
		sub.mu.Lock()
		_ = sub.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.writeWait))
		_ = sub.conn.Close()
		sub.mu.Unlock()
	}
}

func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[key])
}
