package ws

import (
	"sync"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	ID() string
	Username() string
	GroupName() string
}

// Hub indexes live connections by conversation group and by user. Group
// membership drives message fan-out; the user index serves presence
// broadcasts to everyone except the user whose state changed.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[Conn]struct{} // groupName -> set of connections
	users  map[string]map[Conn]struct{} // username -> set of connections
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[Conn]struct{}),
		users:  make(map[string]map[Conn]struct{}),
	}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if g := c.GroupName(); g != "" {
		gs, ok := h.groups[g]
		if !ok {
			gs = make(map[Conn]struct{})
			h.groups[g] = gs
		}
		gs[c] = struct{}{}
	}

	us, ok := h.users[c.Username()]
	if !ok {
		us = make(map[Conn]struct{})
		h.users[c.Username()] = us
	}
	us[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if g := c.GroupName(); g != "" {
		if gs, ok := h.groups[g]; ok {
			delete(gs, c)
			if len(gs) == 0 {
				delete(h.groups, g)
			}
		}
	}

	if us, ok := h.users[c.Username()]; ok {
		delete(us, c)
		if len(us) == 0 {
			delete(h.users, c.Username())
		}
	}
}

// Broadcast delivers msg to every connection currently joined to the group.
func (h *Hub) Broadcast(groupName string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if gs, ok := h.groups[groupName]; ok {
		for c := range gs {
			_ = c.Send(msg) // best-effort
		}
	}
}

// BroadcastOthers delivers msg to every connection not owned by username.
func (h *Hub) BroadcastOthers(username string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for u, us := range h.users {
		if u == username {
			continue
		}
		for c := range us {
			_ = c.Send(msg) // best-effort
		}
	}
}
