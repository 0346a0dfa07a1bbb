package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/alumni-hub/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// MessageRow is a message joined with both parties' display fields.
type MessageRow struct {
	domain.Message
	SenderUsername    string
	SenderDisplayName string
	SenderImageURL    *string
	RecipientUsername string
	RecipientDisplay  string
	RecipientImageURL *string
}

const messageRowColumns = `
	m.id, m.sender_id, m.recipient_id, m.content, m.sent_at, m.read_at,
	m.sender_deleted, m.recipient_deleted,
	s.username, s.display_name, s.image_url,
	r.username, r.display_name, r.image_url`

func scanMessageRow(row pgx.Row) (*MessageRow, error) {
	var m MessageRow
	err := row.Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.SentAt, &m.ReadAt,
		&m.SenderDeleted, &m.RecipientDeleted,
		&m.SenderUsername, &m.SenderDisplayName, &m.SenderImageURL,
		&m.RecipientUsername, &m.RecipientDisplay, &m.RecipientImageURL,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Save inserts the message and fills in the generated id. ReadAt is written
// as given: the caller decides whether the message is born read.
func (r *MessageRepository) Save(ctx context.Context, m *domain.Message) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content, sent_at, read_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.SenderID, m.RecipientID, m.Content, m.SentAt, m.ReadAt)

	return row.Scan(&m.ID)
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	query := `
		SELECT id, sender_id, recipient_id, content, sent_at, read_at,
		       sender_deleted, recipient_deleted
		FROM messages WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.SentAt, &m.ReadAt,
		&m.SenderDeleted, &m.RecipientDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) GetRow(ctx context.Context, id string) (*MessageRow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+messageRowColumns+`
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.recipient_id
		WHERE m.id=$1`, id)

	m, err := scanMessageRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

// Thread loads every message between viewer and other, in either direction,
// excluding rows the viewer soft-deleted. Ordered oldest first; ties on
// sent_at break by id so the order is stable.
func (r *MessageRepository) Thread(ctx context.Context, viewerID, otherID string) ([]MessageRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+messageRowColumns+`
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.recipient_id
		WHERE (m.recipient_id = $1 AND m.sender_id = $2 AND NOT m.recipient_deleted)
		   OR (m.sender_id = $1 AND m.recipient_id = $2 AND NOT m.sender_deleted)
		ORDER BY m.sent_at ASC, m.id ASC
	`, viewerID, otherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// MarkRead stamps read_at on the given messages. The read_at IS NULL guard
// makes the transition one-way: already-read rows are untouched, so retries
// and rejoins are no-ops. Returns how many rows were actually stamped.
func (r *MessageRepository) MarkRead(ctx context.Context, ids []string, ts time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `
		UPDATE messages SET read_at=$2
		WHERE id = ANY($1) AND read_at IS NULL
	`, ids, ts)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// MarkDeleted raises the acting side's soft-delete flag. The OR keeps both
// flags one-way even when the two parties delete concurrently: neither write
// can undo the other. The returned flags are the row's state after the
// update, so the caller decides the full-delete collapse from fresh data.
func (r *MessageRepository) MarkDeleted(ctx context.Context, id string, bySender bool) (senderDeleted, recipientDeleted bool, err error) {
	err = r.db.QueryRow(ctx, `
		UPDATE messages
		SET sender_deleted    = sender_deleted OR $2,
		    recipient_deleted = recipient_deleted OR $3
		WHERE id=$1
		RETURNING sender_deleted, recipient_deleted
	`, id, bySender, !bySender).Scan(&senderDeleted, &recipientDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, domain.ErrMessageNotFound
		}
		return false, false, err
	}
	return senderDeleted, recipientDeleted, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id=$1`, id)
	return err
}

// Container filters for ListForUser.
const (
	ContainerInbox  = "inbox"
	ContainerOutbox = "outbox"
	ContainerUnread = "unread"
)

// ListForUser returns the user's messages in one of the containers, newest
// first, with cursor pagination over (sent_at, id).
func (r *MessageRepository) ListForUser(ctx context.Context, userID, container, after string, limit int) ([]MessageRow, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	var filter string
	switch container {
	case ContainerInbox:
		filter = `m.recipient_id = $1 AND NOT m.recipient_deleted`
	case ContainerOutbox:
		filter = `m.sender_id = $1 AND NOT m.sender_deleted`
	default:
		filter = `m.recipient_id = $1 AND NOT m.recipient_deleted AND m.read_at IS NULL`
	}

	query := `
		SELECT ` + messageRowColumns + `
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.recipient_id
		WHERE ` + filter + `
		  AND (
		    $2::timestamptz IS NULL
		    OR m.sent_at < $2
		    OR (m.sent_at = $2 AND m.id < $3)
		  )
		ORDER BY m.sent_at DESC, m.id DESC
		LIMIT $4`

	var sentAt any
	var id any
	if cur != nil {
		sentAt = cur.SentAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, userID, sentAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		next = Cursor{SentAt: last.SentAt, ID: last.ID}.Encode()
	}
	return out, next, nil
}
