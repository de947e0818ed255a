// internal/cache/cache.go
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTLs for the suite's cached facts. Validation results for good keys live a
// month; failures are retried daily; pro-status and update metadata churn
// faster.
const (
	ProStatusTTL      = time.Hour
	ValidLicenseTTL   = 30 * 24 * time.Hour
	InvalidLicenseTTL = 24 * time.Hour
	UpdateInfoTTL     = 12 * time.Hour
)

// Store is a flat TTL cache. Every entry carries its own expiration; there is
// no eviction policy beyond that.
type Store struct {
	c *gocache.Cache
}

func New() *Store {
	return &Store{
		c: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Key builds the cache key for an (identifier, purpose) pair.
func Key(identifier, purpose string) string {
	sum := md5.Sum([]byte(identifier + "_" + purpose))
	return hex.EncodeToString(sum[:])
}

func (s *Store) Get(key string) (interface{}, bool) {
	return s.c.Get(key)
}

func (s *Store) Set(key string, value interface{}, ttl time.Duration) {
	s.c.Set(key, value, ttl)
}

func (s *Store) Delete(key string) {
	s.c.Delete(key)
}

func (s *Store) Flush() {
	s.c.Flush()
}
