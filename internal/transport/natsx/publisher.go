package natsx

import (
	"encoding/json"
	"log/slog"

	"github.com/alumni-hub/messaging-service/internal/transport/ws"

	"github.com/nats-io/nats.go"
)

// Subjects mirrored to NATS. Other platform services (notification push,
// analytics) subscribe to these; the websocket hub stays the delivery path
// for connected clients.
const (
	subjectMessagePrefix  = "dm."
	subjectPresenceOnline = "presence.online"
	subjectPresenceOff    = "presence.offline"
)

type presenceEvent struct {
	Event    string `json:"event"`
	Username string `json:"username"`
}

// Publisher mirrors delivered events onto NATS subjects. Every publish is
// best-effort: a broker outage is logged and the originating operation
// proceeds.
type Publisher struct {
	nc *nats.Conn
}

func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectBufSize(8*1024*1024),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

func (p *Publisher) Close() {
	_ = p.nc.Drain()
}

func (p *Publisher) MessageSent(groupName string, item ws.MessageItem) {
	data, err := json.Marshal(item)
	if err != nil {
		slog.Error("nats marshal message", "err", err)
		return
	}
	if err := p.nc.Publish(subjectMessagePrefix+groupName, data); err != nil {
		slog.Warn("nats publish message", "group", groupName, "err", err)
	}
}

func (p *Publisher) PresenceChanged(event, username string) {
	subject := subjectPresenceOnline
	if event == ws.TypeUserOffline {
		subject = subjectPresenceOff
	}
	data, err := json.Marshal(presenceEvent{Event: event, Username: username})
	if err != nil {
		slog.Error("nats marshal presence", "err", err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		slog.Warn("nats publish presence", "user", username, "err", err)
	}
}
