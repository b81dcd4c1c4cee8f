// Package snapcache keeps the last good bazaar snapshot in Redis so a restart
// can render data before the first fetch completes.
package snapcache

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/pkg/redis"
)

const snapshotKey = "snapshot:latest"

// Cache stores raw snapshots
type Cache struct {
	cache *redis.Cache[contracts.RawSnapshot]
	ttl   time.Duration
}

// New creates a snapshot cache on top of client. A disabled client makes every call a no-op.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		cache: redis.NewCache[contracts.RawSnapshot](client, "bazaar"),
		ttl:   ttl,
	}
}

// Load returns the cached snapshot, found=false when nothing is stored
func (c *Cache) Load(ctx context.Context) (contracts.RawSnapshot, bool, error) {
	snapshot, found, err := c.cache.Get(ctx, snapshotKey)
	if err != nil {
		return contracts.RawSnapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot, found, nil
}

// Save stores snapshot with the configured TTL
func (c *Cache) Save(ctx context.Context, snapshot contracts.RawSnapshot) error {
	if err := c.cache.Set(ctx, snapshotKey, snapshot, c.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
