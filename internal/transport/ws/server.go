package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alumni-hub/messaging-service/internal/domain"
	"github.com/alumni-hub/messaging-service/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type MessageSvc interface {
	Send(ctx context.Context, senderUsername, recipientUsername, content string) (*service.MessageView, error)
	JoinThread(ctx context.Context, callerUsername, otherUsername string) ([]service.MessageView, error)
}

type Registry interface {
	AddConnection(ctx context.Context, groupName string, conn domain.Connection) error
	RemoveConnection(ctx context.Context, connID string) error
}

type Presence interface {
	Connect(username string) bool
	Disconnect(username string) bool
	Online() []string
}

// Mirror republishes delivered events to an external pub/sub layer.
// Best-effort: errors never fail the originating operation.
type Mirror interface {
	MessageSent(groupName string, item MessageItem)
	PresenceChanged(event, username string)
}

type Server struct {
	upgrader   websocket.Upgrader
	hub        *Hub
	messageSvc MessageSvc
	registry   Registry
	presence   Presence
	mirror     Mirror // optional

	pingEvery time.Duration
}

func NewServer(hub *Hub, messageSvc MessageSvc, registry Registry, presence Presence, mirror Mirror) *Server {
	return &Server{
		hub:        hub,
		messageSvc: messageSvc,
		registry:   registry,
		presence:   presence,
		mirror:     mirror,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/messages?access_token=...&username=...&user=<other>
//
// One socket is one connection joined to the conversation group of
// (username, user). On join the thread's unread messages are reconciled and
// returned to the caller; inbound NewMessage payloads are persisted and
// fanned out to the group; on disconnect the connection's membership row is
// removed.
func (s *Server) HandleMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := strings.TrimSpace(q.Get("access_token"))
	username := domain.NormalizeUsername(q.Get("username"))
	otherUser := domain.NormalizeUsername(q.Get("user"))
	if accessToken == "" || username == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}
	if otherUser == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}
	if username == otherUser {
		http.Error(w, "cannot open a thread with yourself", http.StatusBadRequest)
		return
	}

	groupName := domain.GroupName(username, otherUser)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}

	c := newWsConn(conn, uuid.NewString(), username, groupName)

	// Hub membership first: the moment the registry row exists, senders
	// stamp messages born read on the assumption this connection receives
	// the fan-out. If the store is down the join fails as a whole.
	s.hub.Add(c)
	if err := s.registry.AddConnection(r.Context(), groupName, domain.Connection{
		ID:        c.id,
		Username:  username,
		GroupName: groupName,
	}); err != nil {
		slog.Error("ws join group failed", "group", groupName, "user", username, "err", err)
		s.hub.Remove(c)
		_ = c.Close()
		return
	}

	if err := s.sendThread(r.Context(), c, otherUser); err != nil {
		slog.Warn("ws send thread failed", "group", groupName, "user", username, "err", err)
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// Teardown reverses the join order: the registry row goes first, while
	// the hub still routes to this connection, so no sender can stamp a
	// message read against a socket the fan-out no longer reaches. The
	// request context is gone once the peer disconnects; the row still has
	// to go away or the registry leaks a phantom viewer.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := s.registry.RemoveConnection(cleanupCtx, c.id); err != nil {
		slog.Error("ws remove connection failed", "conn", c.id, "user", username, "err", err)
	}
	s.hub.Remove(c)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.id, "user", username, "err", err)
	}
}

// WS endpoint: GET /ws/presence?access_token=...&username=...
//
// Tracks the user's connection count and broadcasts the online/offline
// transition edges to everyone else. Connection churn above zero stays
// silent.
func (s *Server) HandlePresence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := strings.TrimSpace(q.Get("access_token"))
	username := domain.NormalizeUsername(q.Get("username"))
	if accessToken == "" || username == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}

	c := newWsConn(conn, uuid.NewString(), username, "")
	s.hub.Add(c)

	if s.presence.Connect(username) {
		s.hub.BroadcastOthers(username, Message{
			Type:    TypeUserOnline,
			Payload: PresencePayload{Username: username},
		})
		if s.mirror != nil {
			s.mirror.PresenceChanged(TypeUserOnline, username)
		}
	}

	if err := c.Send(Message{
		Type:    TypeOnlineUsers,
		Payload: OnlineUsersPayload{Usernames: s.presence.Online()},
	}); err != nil {
		slog.Debug("ws send online users failed", "user", username, "err", err)
	}

	go s.writeLoop(r.Context(), c)
	s.discardLoop(c)

	s.hub.Remove(c)

	if s.presence.Disconnect(username) {
		s.hub.BroadcastOthers(username, Message{
			Type:    TypeUserOffline,
			Payload: PresencePayload{Username: username},
		})
		if s.mirror != nil {
			s.mirror.PresenceChanged(TypeUserOffline, username)
		}
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.id, "user", username, "err", err)
	}
}

func (s *Server) sendThread(ctx context.Context, c *wsConn, otherUser string) error {
	newlyRead, err := s.messageSvc.JoinThread(ctx, c.username, otherUser)
	if err != nil {
		return err
	}
	items := make([]MessageItem, 0, len(newlyRead))
	for _, v := range newlyRead {
		items = append(items, itemFromView(v))
	}

	return c.Send(Message{
		Type:    TypeMessageThread,
		Payload: items,
	})
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeNewMessage:
			var p SendMessagePayload
			if decode(msg.Payload, &p) != nil {
				continue
			}
			s.handleSend(ctx, c, p)
		default:
			// ignore
		}
	}
}

// handleSend persists an inbound message. Fan-out to the group, this
// connection included, happens inside the service through the broadcaster;
// only failures are answered here, to the origin connection alone.
func (s *Server) handleSend(ctx context.Context, c *wsConn, p SendMessagePayload) {
	if _, err := s.messageSvc.Send(ctx, c.username, p.RecipientUsername, p.Content); err != nil {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: errorText(err)}})
		if !isBusinessErr(err) {
			slog.Error("ws send message failed", "user", c.username, "err", err)
		}
	}
}

// discardLoop drains the presence socket; inbound frames carry nothing.
func (s *Server) discardLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 10)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

func itemFromView(v service.MessageView) MessageItem {
	return MessageItem{
		ID:                   v.ID,
		SenderID:             v.SenderID,
		SenderUsername:       v.SenderUsername,
		SenderDisplayName:    v.SenderDisplayName,
		SenderImageURL:       v.SenderImageURL,
		RecipientID:          v.RecipientID,
		RecipientUsername:    v.RecipientUsername,
		RecipientDisplayName: v.RecipientDisplayName,
		RecipientImageURL:    v.RecipientImageURL,
		Content:              v.Content,
		DateRead:             v.ReadAt,
		MessageSent:          v.SentAt,
	}
}

func isBusinessErr(err error) bool {
	return errors.Is(err, domain.ErrEmptyContent) ||
		errors.Is(err, domain.ErrSelfMessage) ||
		errors.Is(err, domain.ErrUserNotFound)
}

func errorText(err error) string {
	if isBusinessErr(err) {
		return err.Error()
	}
	return "failed to send message"
}

type wsConn struct {
	conn     *websocket.Conn
	id       string
	username string
	group    string
	sendMu   chan struct{}
	closed   chan struct{}
}

func newWsConn(c *websocket.Conn, id, username, group string) *wsConn {
	return &wsConn{
		conn:     c,
		id:       id,
		username: username,
		group:    group,
		sendMu:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string        { return c.id }
func (c *wsConn) Username() string  { return c.username }
func (c *wsConn) GroupName() string { return c.group }
