package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"main/dto"

	"github.com/redis/go-redis/v9"
)

// ClipCache keeps the first browsing page per owner in Redis so the
// common "recent clips" read skips Mongo. Every accepted merge
// invalidates the owner's entry.
type ClipCache struct {
	client *redis.Client
	ttl    time.Duration
}

var GlobalClipCache *ClipCache

func NewClipCache(redisURL string, ttl time.Duration) (*ClipCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &ClipCache{client: client, ttl: ttl}, nil
}

func recentKey(ownerID string) string {
	return fmt.Sprintf("clips:recent:%s", ownerID)
}

// GetRecentPage returns the cached first page, or (nil, nil) on a miss.
func (cc *ClipCache) GetRecentPage(ctx context.Context, ownerID string) (*dto.ClipsPageResponse, error) {
	data, err := cc.client.Get(ctx, recentKey(ownerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read clip cache: %v", err)
	}

	var page dto.ClipsPageResponse
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached page: %v", err)
	}
	return &page, nil
}

func (cc *ClipCache) SetRecentPage(ctx context.Context, ownerID string, page *dto.ClipsPageResponse) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %v", err)
	}
	return cc.client.Set(ctx, recentKey(ownerID), data, cc.ttl).Err()
}

// Invalidate drops the owner's cached page after an accepted write.
func (cc *ClipCache) Invalidate(ctx context.Context, ownerID string) error {
	return cc.client.Del(ctx, recentKey(ownerID)).Err()
}
