package postgres

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCursor reports an unusable page token supplied by a client.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a keyset position in a message listing: the (sent_at, id) pair
// of the last row the client received. Listings order by sent_at with id as
// the tiebreaker, so the pair pins an exact resume point.
type Cursor struct {
	SentAt time.Time `json:"sent_at"`
	ID     string    `json:"id"`
}

// Encode renders the cursor as an opaque page token.
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a page token. An empty token means "from the top" and
// decodes to nil; anything else that does not round-trip is ErrInvalidCursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return &c, nil
}
