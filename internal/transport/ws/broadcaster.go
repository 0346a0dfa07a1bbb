package ws

import (
	"github.com/alumni-hub/messaging-service/internal/service"
)

// GroupBroadcaster pushes persisted messages to the conversation group's
// live sockets and, when configured, mirrors them to the pub/sub layer. It
// is the delivery side of every send, REST or websocket.
type GroupBroadcaster struct {
	hub    *Hub
	mirror Mirror // optional
}

func NewGroupBroadcaster(hub *Hub, mirror Mirror) *GroupBroadcaster {
	return &GroupBroadcaster{hub: hub, mirror: mirror}
}

func (b *GroupBroadcaster) MessageSent(groupName string, v service.MessageView) {
	item := itemFromView(v)
	b.hub.Broadcast(groupName, Message{Type: TypeNewMessage, Payload: item})
	if b.mirror != nil {
		b.mirror.MessageSent(groupName, item)
	}
}
