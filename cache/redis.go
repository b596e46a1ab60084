package cache

import (
	"github.com/gofiber/storage/redis/v3"
)

// NewRedis returns a Redis-backed Storage for sharing the catalog cache
// across processes. The backend's contract matches Storage exactly, so this
// is a plain constructor passthrough.
func NewRedis(cfg redis.Config) Storage {
	return redis.New(cfg)
}
