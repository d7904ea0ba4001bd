package dto

import "time"

type PushRequest struct {
	Changes []ClipChange `json:"changes" binding:"required"`
}

type PushResponse struct {
	Applied    []ClipResponse `json:"applied"`
	Conflicts  []ClipResponse `json:"conflicts"`
	ServerTime time.Time      `json:"server_time"`
}

type PullResponse struct {
	Changes   []ClipResponse `json:"changes"`
	NextSince string         `json:"next_since"`
	HasMore   bool           `json:"has_more"`
}

type SessionRequest struct {
	OwnerID  string `json:"owner_id" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TagRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}
