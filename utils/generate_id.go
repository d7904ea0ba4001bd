package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new opaque identifier for clips, tags and sessions.
func GenerateID() string {
	return uuid.NewString()
}
