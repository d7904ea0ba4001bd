package model

import (
	"strings"
	"time"
)

// Tag is a per-owner label. NormalizedKey is the case-insensitive identity
// (unique per owner); DisplayName keeps the casing from first use. Tags are
// upserted, never hard-deleted: removing the last reference marks the row
// deleted so the display casing survives for reuse.
type Tag struct {
	ID            string    `bson:"_id" json:"id"`
	OwnerID       string    `bson:"owner_id" json:"owner_id"`
	DisplayName   string    `bson:"display_name" json:"display_name"`
	NormalizedKey string    `bson:"normalized_key" json:"normalized_key"`
	IsDeleted     bool      `bson:"is_deleted" json:"is_deleted"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// NormalizeTag is the case-insensitive identity of a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
