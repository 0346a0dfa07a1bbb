package service

import (
	"context"
	"strings"
	"time"

	"github.com/alumni-hub/messaging-service/internal/domain"
	"github.com/alumni-hub/messaging-service/internal/postgres"
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type MessageStore interface {
	Save(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	Thread(ctx context.Context, viewerID, otherID string) ([]postgres.MessageRow, error)
	MarkRead(ctx context.Context, ids []string, ts time.Time) (int64, error)
	MarkDeleted(ctx context.Context, id string, bySender bool) (senderDeleted, recipientDeleted bool, err error)
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID, container, after string, limit int) ([]postgres.MessageRow, string, error)
}

// ConnectionRegistry is the persisted membership of transport connections in
// conversation groups.
type ConnectionRegistry interface {
	AddConnection(ctx context.Context, groupName string, conn domain.Connection) error
	RemoveConnection(ctx context.Context, connID string) error
	Connections(ctx context.Context, groupName string) ([]domain.Connection, error)
}

// Broadcaster pushes a persisted message to the conversation group's live
// connections, whatever transport carried the send. Delivery is best-effort
// and must never fail the originating operation.
type Broadcaster interface {
	MessageSent(groupName string, msg MessageView)
}

// MessageView is a message with both parties' display fields resolved.
type MessageView struct {
	ID                string
	SenderID          string
	SenderUsername    string
	SenderDisplayName string
	SenderImageURL    *string

	RecipientID          string
	RecipientUsername    string
	RecipientDisplayName string
	RecipientImageURL    *string

	Content string
	ReadAt  *time.Time
	SentAt  time.Time
}

type MessageService struct {
	users     UserStore
	messages  MessageStore
	registry  ConnectionRegistry
	broadcast Broadcaster // optional

	now func() time.Time
}

func NewMessageService(users UserStore, messages MessageStore, registry ConnectionRegistry, broadcast Broadcaster) *MessageService {
	return &MessageService{
		users:     users,
		messages:  messages,
		registry:  registry,
		broadcast: broadcast,
		now:       time.Now,
	}
}

// Send validates and persists a direct message, then fans it out to the
// pair's live connections. The message is born read when the recipient
// currently holds a connection in the pair's conversation group, i.e. is
// viewing the thread right now.
func (s *MessageService) Send(ctx context.Context, senderUsername, recipientUsername, content string) (*MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	senderUsername = domain.NormalizeUsername(senderUsername)
	recipientUsername = domain.NormalizeUsername(recipientUsername)
	if senderUsername == recipientUsername {
		return nil, domain.ErrSelfMessage
	}

	sender, err := s.users.GetByUsername(ctx, senderUsername)
	if err != nil {
		return nil, err
	}
	recipient, err := s.users.GetByUsername(ctx, recipientUsername)
	if err != nil {
		return nil, err
	}

	groupName := domain.GroupName(sender.Username, recipient.Username)
	conns, err := s.registry.Connections(ctx, groupName)
	if err != nil {
		return nil, err
	}

	msg := domain.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
		SentAt:      s.now().UTC(),
	}
	for _, c := range conns {
		if c.Username == recipient.Username {
			readAt := msg.SentAt
			msg.ReadAt = &readAt
			break
		}
	}

	if err := s.messages.Save(ctx, &msg); err != nil {
		return nil, err
	}

	view := viewFromParties(msg, sender, recipient)
	if s.broadcast != nil {
		s.broadcast.MessageSent(groupName, *view)
	}
	return view, nil
}

// JoinThread reconciles unread state when a user (re)joins a conversation:
// it loads the thread, stamps the caller's unread inbound messages as read,
// and returns exactly that originally-unread subset. Joining again with
// nothing unread performs no writes.
func (s *MessageService) JoinThread(ctx context.Context, callerUsername, otherUsername string) ([]MessageView, error) {
	callerUsername = domain.NormalizeUsername(callerUsername)
	otherUsername = domain.NormalizeUsername(otherUsername)
	if callerUsername == otherUsername {
		return nil, domain.ErrSelfMessage
	}
	caller, err := s.users.GetByUsername(ctx, callerUsername)
	if err != nil {
		return nil, err
	}
	other, err := s.users.GetByUsername(ctx, otherUsername)
	if err != nil {
		return nil, err
	}

	rows, err := s.messages.Thread(ctx, caller.ID, other.ID)
	if err != nil {
		return nil, err
	}

	var unread []postgres.MessageRow
	for _, m := range rows {
		if m.ReadAt == nil && m.RecipientID == caller.ID {
			unread = append(unread, m)
		}
	}
	if len(unread) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(unread))
	for _, m := range unread {
		ids = append(ids, m.ID)
	}
	readAt := s.now().UTC()
	if _, err := s.messages.MarkRead(ctx, ids, readAt); err != nil {
		return nil, err
	}

	out := make([]MessageView, 0, len(unread))
	for _, m := range unread {
		m.ReadAt = &readAt
		out = append(out, *viewFromRow(m))
	}
	return out, nil
}

// Thread returns the full visible history between the caller and the other
// user, oldest first. Read state is untouched: stamping happens on join.
func (s *MessageService) Thread(ctx context.Context, callerUsername, otherUsername string) ([]MessageView, error) {
	callerUsername = domain.NormalizeUsername(callerUsername)
	otherUsername = domain.NormalizeUsername(otherUsername)
	caller, err := s.users.GetByUsername(ctx, callerUsername)
	if err != nil {
		return nil, err
	}
	other, err := s.users.GetByUsername(ctx, otherUsername)
	if err != nil {
		return nil, err
	}

	rows, err := s.messages.Thread(ctx, caller.ID, other.ID)
	if err != nil {
		return nil, err
	}
	out := make([]MessageView, 0, len(rows))
	for _, m := range rows {
		out = append(out, *viewFromRow(m))
	}
	return out, nil
}

// Delete flags the message deleted on the acting user's side. The row is
// kept while the other side can still see it and physically removed once
// both sides have deleted it. Deleting twice from one side is a no-op.
func (s *MessageService) Delete(ctx context.Context, username, messageID string) error {
	user, err := s.users.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != user.ID && msg.RecipientID != user.ID {
		return domain.ErrNotMessageOwner
	}

	// MarkDeleted raises only this side's flag and returns the row's
	// post-update state: of two concurrent deletes, exactly one sees both
	// flags set and performs the purge.
	senderDeleted, recipientDeleted, err := s.messages.MarkDeleted(ctx, messageID, msg.SenderID == user.ID)
	if err != nil {
		return err
	}
	if senderDeleted && recipientDeleted {
		return s.messages.Delete(ctx, messageID)
	}
	return nil
}

// ListForUser pages through the user's messages by container: inbox, outbox
// or unread (default).
func (s *MessageService) ListForUser(ctx context.Context, username, container, cursor string, limit int) ([]MessageView, string, error) {
	user, err := s.users.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return nil, "", err
	}
	rows, next, err := s.messages.ListForUser(ctx, user.ID, container, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	out := make([]MessageView, 0, len(rows))
	for _, m := range rows {
		out = append(out, *viewFromRow(m))
	}
	return out, next, nil
}

func viewFromRow(m postgres.MessageRow) *MessageView {
	return &MessageView{
		ID:                   m.ID,
		SenderID:             m.SenderID,
		SenderUsername:       m.SenderUsername,
		SenderDisplayName:    m.SenderDisplayName,
		SenderImageURL:       m.SenderImageURL,
		RecipientID:          m.RecipientID,
		RecipientUsername:    m.RecipientUsername,
		RecipientDisplayName: m.RecipientDisplay,
		RecipientImageURL:    m.RecipientImageURL,
		Content:              m.Content,
		ReadAt:               m.ReadAt,
		SentAt:               m.SentAt,
	}
}

func viewFromParties(m domain.Message, sender, recipient *domain.User) *MessageView {
	return &MessageView{
		ID:                   m.ID,
		SenderID:             sender.ID,
		SenderUsername:       sender.Username,
		SenderDisplayName:    sender.DisplayName,
		SenderImageURL:       sender.ImageURL,
		RecipientID:          recipient.ID,
		RecipientUsername:    recipient.Username,
		RecipientDisplayName: recipient.DisplayName,
		RecipientImageURL:    recipient.ImageURL,
		Content:              m.Content,
		ReadAt:               m.ReadAt,
		SentAt:               m.SentAt,
	}
}
