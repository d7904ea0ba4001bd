package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash is the content address used for image payloads and object
// storage keys.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
