package querycache

import "context"

// Mutate sends a request and invalidates keys only when it succeeds.
func Mutate[R any](ctx context.Context, c *Cache, send func(context.Context) (R, error), keys ...string) (R, error) {
	res, err := send(ctx)
	if err != nil {
		return res, err
	}
	for _, k := range keys {
		c.Invalidate(k)
	}
	return res, nil
}

// MutateOptimistic applies apply to the cached value of key before sending.
// On failure the cached value is restored to the exact snapshot taken before
// apply ran, so apply must return a new value rather than edit its argument.
// Either way the key is invalidated afterwards so the next Fetch
// reconciles with the server.
func MutateOptimistic[T, R any](ctx context.Context, c *Cache, key string, apply func(T) T, send func(context.Context) (R, error)) (R, error) {
	c.mu.Lock()
	snap, had := c.entries.Get(key)
	if had {
		if cur, ok := snap.data.(T); ok {
			c.entries.Set(key, entry{data: apply(cur), stale: snap.stale, gen: snap.gen})
		}
	}
	c.mu.Unlock()

	res, err := send(ctx)
	if err != nil && had {
		c.mu.Lock()
		c.entries.Set(key, snap)
		c.mu.Unlock()
		c.logger.Debug("Rolled back optimistic update", "key", key)
	}
	c.Invalidate(key)
	return res, err
}
