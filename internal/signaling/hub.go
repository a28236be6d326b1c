package signaling

import (
	"log/slog"
	"sync"
)

// Conn is a live client connection as seen by the hub.
// Send must not block; a full or closed connection returns an error.
type Conn interface {
	ID() string
	Send(Message) error
}

// HubStats is a point-in-time view for the admin API.
type HubStats struct {
	Connections int `json:"connections"`
	Anonymous   int `json:"anonymous"`
	Users       int `json:"users"`
}

// Hub maps user ids to their live connections on this node and delivers
// messages to them. It holds no call state and, like the call table, is not
// shared between nodes.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Conn            // conn id -> conn
	owner  map[string]string          // conn id -> user id, bound conns only
	byUser map[string]map[string]Conn // user id -> conn id -> conn

	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		conns:  make(map[string]Conn),
		owner:  make(map[string]string),
		byUser: make(map[string]map[string]Conn),
		log:    log,
	}
}

// Add registers a connection. Anonymous connections stay registered but unbound.
func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	h.mu.Unlock()
}

// Bind associates a registered connection with userID. Rebinding to the same
// user is a no-op; a connection never moves to a different user.
func (h *Hub) Bind(connID, userID string) error {
	if userID == "" {
		return ErrAnonymous
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConn
	}
	if cur, ok := h.owner[connID]; ok {
		if cur != userID {
			return ErrAlreadyBound
		}
		return nil
	}

	h.owner[connID] = userID
	set := h.byUser[userID]
	if set == nil {
		set = make(map[string]Conn)
		h.byUser[userID] = set
	}
	set[connID] = c
	return nil
}

// Unbind forgets the connection. It returns the user the connection was bound
// to (empty if anonymous or unknown) and how many connections that user still has.
func (h *Hub) Unbind(connID string) (userID string, remaining int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, connID)
	userID, ok := h.owner[connID]
	if !ok {
		return "", 0
	}
	delete(h.owner, connID)

	set := h.byUser[userID]
	delete(set, connID)
	if len(set) == 0 {
		delete(h.byUser, userID)
		return userID, 0
	}
	return userID, len(set)
}

// SendToUser delivers msg to every connection of userID. Offline users are not
// an error. It returns the number of connections that accepted the message.
func (h *Hub) SendToUser(userID string, msg Message) int {
	targets := h.snapshot(userID)
	delivered := 0
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			h.log.Debug("signaling delivery dropped", "conn_id", c.ID(), "user_id", userID, "type", msg.Type.String(), "err", err)
			continue
		}
		delivered++
	}
	return delivered
}

// SendToConn delivers msg to a single connection.
func (h *Hub) SendToConn(connID string, msg Message) error {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownConn
	}
	return c.Send(msg)
}

// Connections returns the number of local connections bound to userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Connections: len(h.conns),
		Anonymous:   len(h.conns) - len(h.owner),
		Users:       len(h.byUser),
	}
}

func (h *Hub) snapshot(userID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.byUser[userID]
	out := make([]Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}
