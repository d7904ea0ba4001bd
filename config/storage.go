package config

import (
	"main/utils"
)

// StorageConfig covers the S3-compatible object tier for large images.
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Encoded images at or below InlineThreshold bytes stay inline in the
	// metadata record; larger ones go to object storage.
	InlineThreshold int
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Endpoint:        utils.GetEnvAsString("S3_ENDPOINT", "http://localhost:9000"),
		Region:          utils.GetEnvAsString("S3_REGION", "us-east-1"),
		Bucket:          utils.GetEnvAsString("S3_BUCKET", "clipsync-images"),
		AccessKeyID:     utils.GetEnvAsString("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: utils.GetEnvAsString("S3_SECRET_ACCESS_KEY", ""),
		InlineThreshold: utils.GetEnvAsInt("IMAGE_INLINE_THRESHOLD", 48*1024),
	}
}
