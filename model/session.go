package model

import "time"

// DeviceSession records one device's authenticated session with the sync
// service. DeviceInfo is derived from the User-Agent header at session
// creation.
type DeviceSession struct {
	SessionID      string    `bson:"session_id" json:"session_id"`
	OwnerID        string    `bson:"owner_id" json:"owner_id"`
	DeviceID       string    `bson:"device_id" json:"device_id"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
	LastActivityAt time.Time `bson:"last_activity_at" json:"last_activity_at"`
	DeviceInfo     string    `bson:"device_info" json:"device_info"`
	IPAddress      string    `bson:"ip_address" json:"ip_address"`
	IsActive       bool      `bson:"is_active" json:"is_active"`
}
