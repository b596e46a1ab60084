// Package cache provides the pluggable storage backends behind the variable
// catalog cache. The Storage contract mirrors gofiber/storage, so its
// ecosystem backends satisfy it directly; Memory, File, and Postgres are
// local implementations of the same contract.
package cache

import (
	"fmt"
	"time"
)

// Storage is the catalog cache backend contract. Get returns (nil, nil) on
// a miss. A zero exp on Set means the entry never expires.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Reset() error
	Close() error
}

// Key builds the canonical cache key for a (survey, year) catalog.
func Key(survey string, year int) string {
	return fmt.Sprintf("catalog/%s/%d", survey, year)
}
