package utils

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		ServerUpdatedAt: time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:              "clip-abc-123",
	}

	decoded, err := DecodeCursor(original.Encode())
	if err != nil {
		t.Fatal("decode failed:", err)
	}
	if !decoded.ServerUpdatedAt.Equal(original.ServerUpdatedAt) {
		t.Errorf("timestamp mismatch: got %v, want %v", decoded.ServerUpdatedAt, original.ServerUpdatedAt)
	}
	if decoded.ID != original.ID {
		t.Errorf("id mismatch: got %q, want %q", decoded.ID, original.ID)
	}
}

func TestCursorRoundTripDropsSubMicro(t *testing.T) {
	// Nanosecond precision below the micro is not representable and
	// must truncate, not corrupt.
	original := Cursor{
		ServerUpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 1500, time.UTC),
		ID:              "x",
	}
	decoded, err := DecodeCursor(original.Encode())
	if err != nil {
		t.Fatal("decode failed:", err)
	}
	if got := decoded.ServerUpdatedAt.Nanosecond(); got != 1000 {
		t.Errorf("expected truncation to 1000ns, got %d", got)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not base64":      "!!!not-base64!!!",
		"wrong version":   base64.URLEncoding.EncodeToString([]byte("v2:123:id")),
		"missing id":      base64.URLEncoding.EncodeToString([]byte("v1:123:")),
		"missing parts":   base64.URLEncoding.EncodeToString([]byte("v1:123")),
		"non-numeric ts":  base64.URLEncoding.EncodeToString([]byte("v1:abc:id")),
		"empty token":     "",
		"plain timestamp": "1700000000",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeCursor(token); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("expected ErrInvalidCursor, got %v", err)
			}
		})
	}
}

func TestCursorIDWithColons(t *testing.T) {
	// IDs are opaque; one containing the separator must survive.
	original := Cursor{ServerUpdatedAt: time.UnixMicro(42).UTC(), ID: "a:b:c"}
	decoded, err := DecodeCursor(original.Encode())
	if err != nil {
		t.Fatal("decode failed:", err)
	}
	if decoded.ID != "a:b:c" {
		t.Errorf("id mismatch: got %q", decoded.ID)
	}
}
