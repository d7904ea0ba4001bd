package config

import (
	"main/utils"
	"time"
)

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL: utils.GetEnvAsDuration("RECENT_CACHE_TTL", 5*time.Minute),
	}
}
