package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id       string
	username string
	group    string
	received []Message
}

func (c *fakeConn) Send(msg Message) error {
	c.received = append(c.received, msg)
	return nil
}
func (c *fakeConn) Close() error      { return nil }
func (c *fakeConn) ID() string        { return c.id }
func (c *fakeConn) Username() string  { return c.username }
func (c *fakeConn) GroupName() string { return c.group }

func TestHub_BroadcastReachesGroupOnly(t *testing.T) {
	h := NewHub()

	ab := "alice-bob"
	aliceConn := &fakeConn{id: "c1", username: "alice", group: ab}
	bobConn := &fakeConn{id: "c2", username: "bob", group: ab}
	carolConn := &fakeConn{id: "c3", username: "carol", group: "alice-carol"}
	h.Add(aliceConn)
	h.Add(bobConn)
	h.Add(carolConn)

	h.Broadcast(ab, Message{Type: TypeNewMessage})

	require.Len(t, aliceConn.received, 1, "sender's connection is a group member too")
	require.Len(t, bobConn.received, 1)
	assert.Empty(t, carolConn.received, "other conversations see nothing")
}

func TestHub_BroadcastMultipleConnectionsPerUser(t *testing.T) {
	h := NewHub()

	ab := "alice-bob"
	phone := &fakeConn{id: "c1", username: "bob", group: ab}
	laptop := &fakeConn{id: "c2", username: "bob", group: ab}
	h.Add(phone)
	h.Add(laptop)

	h.Broadcast(ab, Message{Type: TypeNewMessage})

	assert.Len(t, phone.received, 1)
	assert.Len(t, laptop.received, 1)
}

func TestHub_RemoveStopsDelivery(t *testing.T) {
	h := NewHub()

	ab := "alice-bob"
	c := &fakeConn{id: "c1", username: "alice", group: ab}
	h.Add(c)
	h.Remove(c)

	h.Broadcast(ab, Message{Type: TypeNewMessage})
	assert.Empty(t, c.received)

	// removing again must be harmless
	h.Remove(c)
}

func TestHub_BroadcastOthersSkipsAllOfUsersConnections(t *testing.T) {
	h := NewHub()

	alicePhone := &fakeConn{id: "c1", username: "alice"}
	aliceLaptop := &fakeConn{id: "c2", username: "alice"}
	bobConn := &fakeConn{id: "c3", username: "bob"}
	carolConn := &fakeConn{id: "c4", username: "carol"}
	h.Add(alicePhone)
	h.Add(aliceLaptop)
	h.Add(bobConn)
	h.Add(carolConn)

	h.BroadcastOthers("alice", Message{Type: TypeUserOnline, Payload: PresencePayload{Username: "alice"}})

	assert.Empty(t, alicePhone.received)
	assert.Empty(t, aliceLaptop.received)
	require.Len(t, bobConn.received, 1)
	require.Len(t, carolConn.received, 1)
	assert.Equal(t, TypeUserOnline, bobConn.received[0].Type)
}

func TestHub_GrouplessConnectionsOnlyInUserIndex(t *testing.T) {
	h := NewHub()

	presenceConn := &fakeConn{id: "c1", username: "alice"} // presence socket, no group
	h.Add(presenceConn)

	h.Broadcast("alice-bob", Message{Type: TypeNewMessage})
	assert.Empty(t, presenceConn.received)

	h.BroadcastOthers("bob", Message{Type: TypeUserOffline})
	assert.Len(t, presenceConn.received, 1)
}
