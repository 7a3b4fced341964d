package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned by a CacheStore when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheStore is the minimal key/value surface the catalog cache needs.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ── Redis store ───────────────────────────────────────────────────────────────

type redisStore struct{ client *redis.Client }

func NewRedisStore(client *redis.Client) CacheStore { return &redisStore{client: client} }

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// ── Read-through repository ───────────────────────────────────────────────────

const (
	listKey       = "catalog:items"
	itemKeyPrefix = "catalog:item:"
	nameKeyPrefix = "catalog:name:"
)

type cachedRepo struct {
	next   Repository
	store  CacheStore
	ttl    time.Duration
	logger *slog.Logger
	fillMu sync.Mutex
}

// NewCachedRepository wraps next with a read-through cache. Cache errors are
// logged and the call falls through to next.
func NewCachedRepository(next Repository, store CacheStore, ttl time.Duration, logger *slog.Logger) Repository {
	return &cachedRepo{next: next, store: store, ttl: ttl, logger: logger}
}

func (c *cachedRepo) Create(ctx context.Context, item *CatalogItem) error {
	if err := c.next.Create(ctx, item); err != nil {
		return err
	}
	if err := c.store.Del(ctx, listKey, nameKeyPrefix+item.Name); err != nil {
		c.logger.Warn("catalog cache invalidation failed", "error", err)
	}
	return nil
}

func (c *cachedRepo) GetByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error) {
	var item *CatalogItem
	err := c.readThrough(ctx, itemKeyPrefix+id.String(), &item, func() (interface{}, error) {
		return c.next.GetByID(ctx, id)
	})
	return item, err
}

func (c *cachedRepo) GetByName(ctx context.Context, name string) (*CatalogItem, error) {
	var item *CatalogItem
	err := c.readThrough(ctx, nameKeyPrefix+name, &item, func() (interface{}, error) {
		return c.next.GetByName(ctx, name)
	})
	return item, err
}

func (c *cachedRepo) List(ctx context.Context) ([]*CatalogItem, error) {
	var items []*CatalogItem
	err := c.readThrough(ctx, listKey, &items, func() (interface{}, error) {
		return c.next.List(ctx)
	})
	return items, err
}

// readThrough decodes key into dst, or loads it once under fillMu so a cold
// cache is filled by a single caller while the rest wait and re-read.
func (c *cachedRepo) readThrough(ctx context.Context, key string, dst interface{}, load func() (interface{}, error)) error {
	if c.get(ctx, key, dst) {
		return nil
	}

	c.fillMu.Lock()
	defer c.fillMu.Unlock()

	if c.get(ctx, key, dst) {
		return nil
	}

	v, err := load()
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
	return json.Unmarshal(b, dst)
}

func (c *cachedRepo) get(ctx context.Context, key string, dst interface{}) bool {
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.logger.Warn("catalog cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}
