package cache

import (
	"context"
	"errors"
	"log/slog"
)

var _ Cache = (*TieredCache)(nil)

// TieredCache puts a fast cache in front of a persistent one. Hits in the
// back tier warm the front tier; writes go to both.
type TieredCache struct {
	front  Cache
	back   Cache // may be nil
	logger *slog.Logger
}

// NewTieredCache creates a tiered cache. If back is nil, the cache operates
// front-only.
func NewTieredCache(front, back Cache, logger *slog.Logger) *TieredCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TieredCache{front: front, back: back, logger: logger}
}

func (c *TieredCache) Get(ctx context.Context, key Key) (*Entry, error) {
	entry, err := c.front.Get(ctx, key)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrCacheMiss) || c.back == nil {
		return nil, err
	}

	entry, err = c.back.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if putErr := c.front.Put(ctx, entry); putErr != nil {
		c.logger.Warn("failed to warm front cache", "path", key.Path, "error", putErr)
	}
	return entry, nil
}

func (c *TieredCache) Put(ctx context.Context, entry *Entry) error {
	if err := c.front.Put(ctx, entry); err != nil {
		return err
	}
	if c.back != nil {
		if err := c.back.Put(ctx, entry); err != nil {
			// Log but don't fail - front write succeeded
			c.logger.Warn("failed to write persistent cache", "path", entry.Key.Path, "error", err)
		}
	}
	return nil
}

func (c *TieredCache) Close() error {
	var errs []error
	errs = append(errs, c.front.Close())
	if c.back != nil {
		errs = append(errs, c.back.Close())
	}
	return errors.Join(errs...)
}
