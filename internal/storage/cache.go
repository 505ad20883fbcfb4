package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const listCacheKey = "list"

// CachedStore keeps the result of List for a limited time. Any Put or Delete
// invalidates the cached listing.
type CachedStore struct {
	Store
	cache *cache.Cache
}

func NewCachedStore(store Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedStore) List(ctx context.Context) ([]ObjectInfo, error) {
	if cached, ok := c.cache.Get(listCacheKey); ok {
		return append([]ObjectInfo(nil), cached.([]ObjectInfo)...), nil
	}
	objects, err := c.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(listCacheKey, append([]ObjectInfo(nil), objects...))
	return objects, nil
}

func (c *CachedStore) Put(ctx context.Context, name string, data []byte) error {
	defer c.cache.Delete(listCacheKey)
	return c.Store.Put(ctx, name, data)
}

func (c *CachedStore) Delete(ctx context.Context, name string) error {
	defer c.cache.Delete(listCacheKey)
	return c.Store.Delete(ctx, name)
}
