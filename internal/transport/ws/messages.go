package ws

import "time"

// Event types carried over the sockets.
const (
	TypeMessageThread = "ReceiveMessageThread" // newly-read messages on thread join
	TypeNewMessage    = "NewMessage"           // one delivered message
	TypeUserOnline    = "UserIsOnline"         // user went online (first connection)
	TypeUserOffline   = "UserIsOffline"        // user went offline (last connection)
	TypeOnlineUsers   = "OnlineUsers"          // snapshot for the joining client
	TypeError         = "Error"                // reported to the origin connection only
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SendMessagePayload is what a client submits on the message socket.
type SendMessagePayload struct {
	RecipientUsername string `json:"recipient_username"`
	Content           string `json:"content"`
}

// MessageItem is one delivered message with both parties resolved.
type MessageItem struct {
	ID                   string     `json:"id"`
	SenderID             string     `json:"sender_id"`
	SenderUsername       string     `json:"sender_username"`
	SenderDisplayName    string     `json:"sender_display_name"`
	SenderImageURL       *string    `json:"sender_image_url"`
	RecipientID          string     `json:"recipient_id"`
	RecipientUsername    string     `json:"recipient_username"`
	RecipientDisplayName string     `json:"recipient_display_name"`
	RecipientImageURL    *string    `json:"recipient_image_url"`
	Content              string     `json:"content"`
	DateRead             *time.Time `json:"date_read"`
	MessageSent          time.Time  `json:"message_sent"`
}

type PresencePayload struct {
	Username string `json:"username"`
}

type OnlineUsersPayload struct {
	Usernames []string `json:"usernames"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
