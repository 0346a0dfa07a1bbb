package domain

import "time"

type Message struct {
	ID               string     `db:"id"`
	SenderID         string     `db:"sender_id"`
	RecipientID      string     `db:"recipient_id"`
	Content          string     `db:"content"`
	SentAt           time.Time  `db:"sent_at"`
	ReadAt           *time.Time `db:"read_at"`
	SenderDeleted    bool       `db:"sender_deleted"`
	RecipientDeleted bool       `db:"recipient_deleted"`
}
