package catalog

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last record of the previous page.
type Cursor struct {
	AfterCode string `json:"after_code,omitempty"`
}

// EncodeCursor encodes a cursor to a URL-safe string. The zero cursor
// encodes to "".
func EncodeCursor(c Cursor) string {
	if c.AfterCode == "" {
		return ""
	}
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}

func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	decoded, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(decoded, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
