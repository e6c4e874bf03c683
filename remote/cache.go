package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
)

// CachedDelegate remembers successful searches for a short while so that
// repeated keystrokes do not repeat remote calls. Failures are not cached.
type CachedDelegate struct {
	delegate Delegate
	cache    *expirable.LRU[string, models.SearchResultSet]
	logger   logger.Logger
}

var _ Delegate = (*CachedDelegate)(nil)

func NewCachedDelegate(logger logger.Logger, delegate Delegate, size int, ttl time.Duration) *CachedDelegate {
	return &CachedDelegate{
		delegate: delegate,
		cache:    expirable.NewLRU[string, models.SearchResultSet](size, nil, ttl),
		logger:   logger,
	}
}

func cacheKey(q string, limit int) string {
	return fmt.Sprintf("%d|%s", limit, strings.TrimSpace(q))
}

func (c *CachedDelegate) Search(ctx context.Context, q string, limit int) (*models.SearchResultSet, error) {
	key := cacheKey(q, limit)
	if set, ok := c.cache.Get(key); ok {
		c.logger.Debug("delegate cache hit", "query", q, "limit", limit)
		return &set, nil
	}

	set, err := c.delegate.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	if set == nil {
		empty := models.NewSearchResultSet(nil, 0)
		return &empty, nil
	}
	if ctx.Err() == nil {
		c.cache.Add(key, *set)
	}
	return set, nil
}

// Purge drops every cached result.
func (c *CachedDelegate) Purge() {
	c.cache.Purge()
}
