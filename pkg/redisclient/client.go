package redisclient

import (
	"github.com/redis/go-redis/v9"

	"sprinthub/internal/config"
)

// New builds the redis client used for the actor role cache.
func New(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
