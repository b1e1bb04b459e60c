package repositories

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrBadCursor = errors.New("invalid cursor")

// Cursor is a keyset position in a createdAt-desc listing.
type Cursor struct {
	CreatedAt time.Time          `json:"createdAt"`
	ID        primitive.ObjectID `json:"id"`
}

func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrBadCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID.IsZero() {
		return nil, ErrBadCursor
	}
	return &c, nil
}

// Before reports whether a document at (createdAt, id) sorts after the cursor
// in a newest-first listing.
func (c Cursor) Before(createdAt time.Time, id primitive.ObjectID) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id.Hex() < c.ID.Hex()
	}
	return createdAt.Before(c.CreatedAt)
}
