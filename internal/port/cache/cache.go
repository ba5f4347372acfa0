// Package cache defines the port interface for the in-process catalog cache.
// Provider project catalogs are expensive to enumerate (one provider walks
// every hub before it can list projects), so listings are cached briefly.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching of encoded catalogs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
