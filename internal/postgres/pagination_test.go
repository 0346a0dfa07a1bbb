package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	c := Cursor{
		SentAt: time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC),
		ID:     "7b1c2a9e",
	}
	dec, err := DecodeCursor(c.Encode())
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.True(t, c.SentAt.Equal(dec.SentAt))
	assert.Equal(t, c.ID, dec.ID)
}

func TestDecodeCursor_Empty(t *testing.T) {
	dec, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, dec, "empty cursor means first page")
}

func TestDecodeCursor_Garbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!")
	require.ErrorIs(t, err, ErrInvalidCursor)

	// valid base64, invalid json
	_, err = DecodeCursor("bm90LWpzb24")
	require.ErrorIs(t, err, ErrInvalidCursor)
}
