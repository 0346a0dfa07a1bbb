package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alumni-hub/messaging-service/internal/domain"
	"github.com/alumni-hub/messaging-service/internal/service"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessageSvc struct{}

func (stubMessageSvc) Send(context.Context, string, string, string) (*service.MessageView, error) {
	return &service.MessageView{}, nil
}

func (stubMessageSvc) JoinThread(context.Context, string, string) ([]service.MessageView, error) {
	return nil, nil
}

func hubHasUser(h *Hub, username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.users[username]
	return ok
}

// orderRegistry records whether the hub could already (still) deliver to the
// user's socket at the moment the registry row was written (removed).
type orderRegistry struct {
	mu  sync.Mutex
	hub *Hub

	addSawHubConn    bool
	removeSawHubConn bool
	removed          bool
}

func (r *orderRegistry) AddConnection(_ context.Context, _ string, conn domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addSawHubConn = hubHasUser(r.hub, conn.Username)
	return nil
}

func (r *orderRegistry) RemoveConnection(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeSawHubConn = hubHasUser(r.hub, "alice")
	r.removed = true
	return nil
}

// A sender that finds a registry row stamps the message born read expecting
// the hub to deliver it, so the row must never exist while the hub cannot
// reach the socket: hub membership comes first on join and goes last on
// teardown.
func TestHandleMessages_RegistryRowNeverOutlivesHubMembership(t *testing.T) {
	hub := NewHub()
	reg := &orderRegistry{hub: hub}
	srv := NewServer(hub, stubMessageSvc{}, reg, nil, nil)

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleMessages))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?access_token=tok&username=alice&user=bob"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	// the thread payload arriving means the join path completed
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		return reg.removed
	}, time.Second, 10*time.Millisecond)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	assert.True(t, reg.addSawHubConn, "row written before the hub could deliver")
	assert.True(t, reg.removeSawHubConn, "hub stopped delivering before the row was removed")
}

type recordingMirror struct {
	groups []string
	items  []MessageItem
}

func (m *recordingMirror) MessageSent(groupName string, item MessageItem) {
	m.groups = append(m.groups, groupName)
	m.items = append(m.items, item)
}

func (m *recordingMirror) PresenceChanged(string, string) {}

func TestGroupBroadcaster_DeliversAndMirrors(t *testing.T) {
	hub := NewHub()
	ab := "alice-bob"
	bobConn := &fakeConn{id: "c1", username: "bob", group: ab}
	hub.Add(bobConn)
	mirror := &recordingMirror{}
	b := NewGroupBroadcaster(hub, mirror)

	b.MessageSent(ab, service.MessageView{ID: "m1", Content: "hi"})

	require.Len(t, bobConn.received, 1)
	assert.Equal(t, TypeNewMessage, bobConn.received[0].Type)
	require.Len(t, mirror.items, 1)
	assert.Equal(t, "m1", mirror.items[0].ID)
	assert.Equal(t, []string{ab}, mirror.groups)
}
