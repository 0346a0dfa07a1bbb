package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateMessageRequest struct {
	Content string `json:"content"`
}

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

type MessagesListResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type ThreadResponse struct {
	Items []MessageItem `json:"items"`
}

type PresenceResponse struct {
	Usernames []string `json:"usernames"`
}
