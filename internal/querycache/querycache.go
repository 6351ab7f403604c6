// Package querycache keeps client-side copies of server collections keyed by
// resource name. Concurrent loads of one key share a single request, mutations
// invalidate the key they touch, and optimistic mutations roll back exactly on
// failure.
package querycache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"lifeboard/internal/cache"
	"lifeboard/internal/log"
)

const defaultSize = 64

// entry is replaced, never mutated, so readers may hold it without locking.
type entry struct {
	data  any
	stale bool
	gen   uint64
}

type Cache struct {
	mu      sync.Mutex
	entries *cache.LRUCache[entry]
	gens    map[string]uint64
	group   singleflight.Group
	logger  *log.Logger
}

type Option func(*Cache)

// WithSize bounds the number of cached keys.
func WithSize(n int) Option {
	return func(c *Cache) { c.entries = cache.NewLRUCache[entry](n, 0) }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l.WithComponent(log.ComponentCache) }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: cache.NewLRUCache[entry](defaultSize, 0),
		gens:    make(map[string]uint64),
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the fresh cached value for key or loads it with fn. Callers
// that arrive while a load for key is in flight wait for that load instead of
// starting another one. A caller whose ctx ends gets ctx.Err() while the
// load keeps running for the others.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if e, ok := c.entries.Get(key); ok && !e.stale {
		v, ok := e.data.(T)
		if !ok {
			return zero, fmt.Errorf("querycache: key %q holds %T", key, e.data)
		}
		return v, nil
	}

	gen := c.generation(key)
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, gen)
		return v, nil
	})
	var (
		res    any
		shared bool
	)
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		res, shared = r.Val, r.Shared
	}
	if shared {
		c.logger.Debug("Joined in-flight load", "key", key)
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: key %q loaded %T", key, res)
	}
	return v, nil
}

// Peek returns whatever is cached for key, stale or not.
func Peek[T any](c *Cache, key string) (T, bool) {
	var zero T
	e, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := e.data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set replaces the cached value for key and marks it fresh.
func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Set(key, entry{data: v, gen: c.gens[key]})
}

// Invalidate marks key stale. The value stays readable through Peek until the
// next Fetch replaces it, and loads already in flight will not repopulate it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	c.gens[key]++
	if e, ok := c.entries.Get(key); ok {
		e.stale = true
		e.gen = c.gens[key]
		c.entries.Set(key, e)
	}
	c.mu.Unlock()
	c.group.Forget(key)
	c.logger.Debug("Invalidated query", "key", key)
}

// Stale reports whether key is absent or invalidated.
func (c *Cache) Stale(key string) bool {
	e, ok := c.entries.Get(key)
	return !ok || e.stale
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

func (c *Cache) store(key string, v any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	c.entries.Set(key, entry{data: v, gen: gen})
}
