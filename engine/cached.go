package engine

import (
	"context"
	"log/slog"

	"github.com/Rituraj200000/googlemapscraper/cache"
)

// Cached serves repeated URLs from a page cache. Listings of one chain often
// share a website; it is fetched once per run.
type Cached struct {
	next  Engine
	pages *cache.Cache[*FetchResult]
}

// NewCached wraps next with pages.
func NewCached(next Engine, pages *cache.Cache[*FetchResult]) *Cached {
	return &Cached{next: next, pages: pages}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	key := cache.Key(req.URL)
	if hit, ok := c.pages.Get(key); ok {
		slog.Debug("page cache hit", "url", req.URL)
		cp := *hit
		return &cp, nil
	}

	result, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	c.pages.Set(key, result)
	return result, nil
}
