package config

import (
	"main/utils"
	"time"
)

// CaptureConfig drives the device agent: polling cadence, dedup windows
// and image budgets.
type CaptureConfig struct {
	PollInterval    time.Duration
	DedupWindow     time.Duration
	EncodeCooldown  time.Duration
	ImageByteBudget int
	PreviewBudget   int
	RetentionDays   int // 0 means unbounded
	MaxClips        int
}

func LoadCaptureConfig() CaptureConfig {
	return CaptureConfig{
		PollInterval:    utils.GetEnvAsDuration("CAPTURE_POLL_INTERVAL", 1500*time.Millisecond),
		DedupWindow:     utils.GetEnvAsDuration("CAPTURE_DEDUP_WINDOW", 30*time.Second),
		EncodeCooldown:  utils.GetEnvAsDuration("CAPTURE_ENCODE_COOLDOWN", 30*time.Second),
		ImageByteBudget: utils.GetEnvAsInt("IMAGE_BYTE_BUDGET", 1024*1024),
		PreviewBudget:   utils.GetEnvAsInt("IMAGE_PREVIEW_BUDGET", 16*1024),
		RetentionDays:   utils.GetEnvAsInt("RETENTION_DAYS", 180),
		MaxClips:        utils.GetEnvAsInt("MAX_CLIPS", 2000),
	}
}
