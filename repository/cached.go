package repository

import (
	"context"
	"reflect"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/schema"
)

// Cached is a repository that reads entities through a cache. Entities
// are stored msgpack encoded under "<table>:get:<key>". Writes through the
// repository remove the cached entry of the written entity.
//
// Entities cached by other repositories may embed a copy of an entity
// written here; they are not invalidated. Entities whose relations lead
// back to themselves are not cached.
type Cached[K comparable, T schema.Entity[T]] struct {
	*Repository[K, T]
	cache dynrepo.Cache
	ttl   time.Duration
}

// NewCached wraps repo with cache. A ttl of 0 keeps entries until they
// are invalidated.
func NewCached[K comparable, T schema.Entity[T]](repo *Repository[K, T], cache dynrepo.Cache, ttl time.Duration) *Cached[K, T] {
	return &Cached[K, T]{Repository: repo, cache: cache, ttl: ttl}
}

func (c *Cached[K, T]) key(id K) string {
	return dynrepo.CacheKey{Table: c.Table(), Operation: "get", ID: id}.String()
}

// GetByID returns the cached entity, or loads it from the database and
// caches it. Cache failures are logged and fall back to the database.
func (c *Cached[K, T]) GetByID(ctx context.Context, id K) (*T, error) {
	key := c.key(id)
	b, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.reg.logger.Warn("cache get failed", "key", key, "error", err)
	case b != nil:
		e := new(T)
		err := msgpack.Unmarshal(b, e)
		if err == nil {
			return e, nil
		}
		c.reg.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
	}
	e, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cyclic(reflect.ValueOf(e)) {
		c.reg.logger.Debug("not caching cyclic entity", "key", key)
		return e, nil
	}
	b, err = msgpack.Marshal(e)
	if err != nil {
		c.reg.logger.Warn("cache encode failed", "key", key, "error", err)
		return e, nil
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		c.reg.logger.Warn("cache set failed", "key", key, "error", err)
	}
	return e, nil
}

// Update writes e and removes its cache entry.
func (c *Cached[K, T]) Update(ctx context.Context, e *T) error {
	if err := c.Repository.Update(ctx, e); err != nil {
		return err
	}
	return c.invalidate(ctx, c.KeyOf(e))
}

// DeleteByID deletes the entity and removes its cache entry.
func (c *Cached[K, T]) DeleteByID(ctx context.Context, id K) error {
	if err := c.Repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	return c.invalidate(ctx, id)
}

// Insert writes e and removes any cache entry left under its key.
func (c *Cached[K, T]) Insert(ctx context.Context, e *T) (*T, error) {
	out, err := c.Repository.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := c.invalidate(ctx, c.KeyOf(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Purge removes every cached entity of the table.
func (c *Cached[K, T]) Purge(ctx context.Context) error {
	return c.cache.DeletePrefix(ctx, dynrepo.CacheKey{Table: c.Table()}.Prefix())
}

func (c *Cached[K, T]) invalidate(ctx context.Context, id K) error {
	return c.cache.Delete(ctx, c.key(id))
}
