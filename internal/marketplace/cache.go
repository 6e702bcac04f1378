package marketplace

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/metrics"
)

// DefaultCacheTTL is how long a search result is reused.
const DefaultCacheTTL = 10 * time.Minute

// Cached wraps a Client with a TTL cache. Concurrent identical lookups share
// one upstream call, which is not cancelled when the caller that started it
// goes away. Failures are never cached.
type Cached struct {
	next  Client
	cache *gocache.Cache
	group singleflight.Group
}

// NewCached returns a caching Client in front of next.
func NewCached(next Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Search implements Client.
func (c *Cached) Search(ctx context.Context, query string, opts SearchOptions) ([]listing.Listing, error) {
	key := strings.Join([]string{
		"search",
		opts.Marketplace,
		opts.CategoryID,
		opts.ExcludeID,
		strconv.Itoa(opts.Limit),
		strings.ToLower(strings.TrimSpace(query)),
	}, "|")
	return c.lookup(ctx, key, func(ctx context.Context) ([]listing.Listing, error) {
		return c.next.Search(ctx, query, opts)
	})
}

// Related implements Client.
func (c *Cached) Related(ctx context.Context, listingID string) ([]listing.Listing, error) {
	return c.lookup(ctx, "related|"+listingID, func(ctx context.Context) ([]listing.Listing, error) {
		return c.next.Related(ctx, listingID)
	})
}

// Flush drops every cached result.
func (c *Cached) Flush() {
	c.cache.Flush()
}

func (c *Cached) lookup(ctx context.Context, key string, fetch func(context.Context) ([]listing.Listing, error)) ([]listing.Listing, error) {
	if v, ok := c.cache.Get(key); ok {
		metrics.SearchCache.WithLabelValues("hit").Inc()
		return slices.Clone(v.([]listing.Listing)), nil
	}
	metrics.SearchCache.WithLabelValues("miss").Inc()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		listings, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, listings)
		return listings, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]listing.Listing)), nil
	}
}
