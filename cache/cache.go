// Package cache is the query/cache orchestration layer: keyed entries with
// per-entity staleness windows, in-flight request deduplication, and the
// invalidation hooks the scouting facade drives.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by a backend when a key has no live entry.
var ErrMiss = errors.New("cache miss")

// Key identifies one cached query: feature, entity, id and an optional filter
// discriminator, rendered as "feature:entity:id[:filter]".
type Key struct {
	Feature string
	Entity  string
	ID      string
	Filter  string
}

func (k Key) String() string {
	s := fmt.Sprintf("%s:%s:%s", k.Feature, k.Entity, k.ID)
	if k.Filter != "" {
		s += ":" + k.Filter
	}
	return s
}

// Backend stores serialized entries. Memory is the default; Redis serves
// deployments that share the cache across processes.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache deduplicates and caches fetches by key.
type Cache struct {
	backend Backend
	group   singleflight.Group
	logger  *zap.Logger
}

func New(backend Backend, logger *zap.Logger) *Cache {
	return &Cache{backend: backend, logger: logger}
}

// Fetch returns the cached value for key, or runs fn once (concurrent callers
// share the flight) and caches the result for ttl.
func Fetch[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ks := key.String()

	if raw, err := c.backend.Get(ctx, ks); err == nil {
		var out T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		// corrupt entry: drop it and refetch
		_ = c.backend.Delete(ctx, ks)
	}

	v, err, _ := c.group.Do(ks, func() (any, error) {
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if raw, merr := json.Marshal(out); merr == nil {
			if serr := c.backend.Set(ctx, ks, string(raw), ttl); serr != nil {
				c.logger.Warn("cache set failed", zap.String("key", ks), zap.Error(serr))
			}
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Get reads a cached value without fetching. ok is false on miss or decode
// failure.
func Get[T any](ctx context.Context, c *Cache, key Key) (T, bool) {
	var out T
	raw, err := c.backend.Get(ctx, key.String())
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, false
	}
	return out, true
}

// Set stores a value directly, used for optimistic updates and for replacing
// an entry with a mutation result.
func Set[T any](ctx context.Context, c *Cache, key Key, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key.String(), string(raw), ttl)
}

// Invalidate drops the given entries.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) {
	ks := make([]string, 0, len(keys))
	for _, k := range keys {
		ks = append(ks, k.String())
	}
	if err := c.backend.Delete(ctx, ks...); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", ks), zap.Error(err))
	}
}

// InvalidatePrefix drops every entry under a key prefix, e.g. all history
// listings regardless of filter.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	if err := c.backend.DeletePrefix(ctx, prefix); err != nil {
		c.logger.Warn("cache prefix invalidate failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
