package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidToken reports an unparseable pagination token. Tokens come from
// clients, so this is a caller error, not a storage failure.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque pagination state we encode/decode.
// ID plus a millisecond timestamp establish a stable cursor over any
// (updated_at, id)- or (sent_at, id)-ordered listing.
type Cursor struct {
	ID       uint64 `json:"id"`
	UnixMill int64  `json:"ts,omitempty"`
}

// Zero reports whether the cursor is the first-page sentinel.
func (c Cursor) Zero() bool {
	return c.ID == 0 && c.UnixMill == 0
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
