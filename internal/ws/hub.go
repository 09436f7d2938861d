package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tnhan0211/serverzola/internal/metrics"
)

// PresenceNotifier receives the observable presence transitions: the
// first connection of a principal means online, losing the last one
// means offline.
type PresenceNotifier interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

// Hub is the session registry: it maps principals to their live
// connections and owns room membership. A principal may hold several
// connections (multi-device); its personal room is its own id and every
// connection joins it on register. The offline transition fires only
// when the connection count for a principal drops to zero.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]map[*Client]struct{} // userID -> connections
	rooms    map[string]map[*Client]struct{} // roomID -> connections
	presence PresenceNotifier
	log      *zap.SugaredLogger
}

func NewHub(presence PresenceNotifier, log *zap.SugaredLogger) *Hub {
	return &Hub{
		conns:    make(map[string]map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		presence: presence,
		log:      log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := len(h.conns[c.uid]) == 0
	if h.conns[c.uid] == nil {
		h.conns[c.uid] = make(map[*Client]struct{})
	}
	h.conns[c.uid][c] = struct{}{}
	h.joinLocked(c, c.uid) // personal room
	h.mu.Unlock()

	metrics.Connections.Inc()
	if first {
		if err := h.presence.SetOnline(context.Background(), c.uid, true); err != nil {
			h.log.Warnw("presence online failed", "user_id", c.uid, "err", err)
		}
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for room := range c.joined {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.joined = make(map[string]struct{})
	last := false
	if set, ok := h.conns[c.uid]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			metrics.Connections.Dec()
		}
		if len(set) == 0 {
			delete(h.conns, c.uid)
			last = true
		}
	}
	h.mu.Unlock()

	if last {
		if err := h.presence.SetOnline(context.Background(), c.uid, false); err != nil {
			h.log.Warnw("presence offline failed", "user_id", c.uid, "err", err)
		}
	}
}

func (h *Hub) joinLocked(c *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.joined[room] = struct{}{}
}

func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(c, room)
}

func (h *Hub) LeaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.joined, room)
}

// Broadcast delivers one event to every connection in a room. Slow
// consumers are skipped rather than blocked on; durable state is the
// source of truth, clients reconcile via history fetch.
func (h *Hub) Broadcast(room, event string, payload any) {
	b, err := encode(event, payload)
	if err != nil {
		h.log.Warnw("encode broadcast failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(b) {
			h.log.Warnw("dropping frame for slow consumer", "user_id", c.uid, "event", event)
		}
	}
}

// Online reports whether the principal holds at least one connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}
