package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is a resume position in the (server_updated_at, id) total order.
// The encoded form is opaque to clients; decode failures are client
// errors, never a silent reset to page one.
type Cursor struct {
	ServerUpdatedAt time.Time
	ID              string
}

const cursorVersion = "v1"

var ErrInvalidCursor = errors.New("invalid cursor")

// Encode serializes the cursor as v1:<unix-micro>:<id>, base64url-wrapped.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s:%d:%s", cursorVersion, c.ServerUpdatedAt.UnixMicro(), c.ID)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), ":", 3)
	if len(parts) != 3 || parts[0] != cursorVersion || parts[2] == "" {
		return Cursor{}, ErrInvalidCursor
	}
	micros, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{ServerUpdatedAt: time.UnixMicro(micros).UTC(), ID: parts[2]}, nil
}
