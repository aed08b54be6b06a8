// Package cache holds the per-process user projection cache consulted by the
// auth middleware. Entries expire after a fixed TTL; eviction is lazy, there
// is no background sweep. Each instance of the service has its own cache, so
// a status change made elsewhere can take up to one TTL to be observed here.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pengzhou/bz-studypal-api/internal/model"
)

const (
	DefaultTTL = 5 * time.Minute

	maxEntries = 10000
)

type UserCache struct {
	entries *lru.LRU[string, *model.CachedUser]
}

// New constructs a cache whose entries live for ttl. Zero or negative ttl
// falls back to the default.
func New(ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserCache{
		entries: lru.NewLRU[string, *model.CachedUser](maxEntries, nil, ttl),
	}
}

func (c *UserCache) Get(userID string) (*model.CachedUser, bool) {
	return c.entries.Get(userID)
}

func (c *UserCache) Set(userID string, user *model.CachedUser) {
	c.entries.Add(userID, user)
}

func (c *UserCache) Delete(userID string) {
	c.entries.Remove(userID)
}

func (c *UserCache) Clear() {
	c.entries.Purge()
}

func (c *UserCache) Len() int {
	return c.entries.Len()
}
