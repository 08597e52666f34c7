package catalog

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/janhq/drivethru-server/internal/domain/menu"
)

// CachedSource fronts another source with an LRU keyed by restaurant. Each
// entry expires after ttl so database edits show up without a restart.
type CachedSource struct {
	next  menu.Source
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

var _ menu.Source = (*CachedSource)(nil)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// NewCachedSource wraps next. size bounds the number of cached entries.
func NewCachedSource(next menu.Source, size int, ttl time.Duration) (*CachedSource, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create catalog cache: %w", err)
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, now: time.Now}, nil
}

// Restaurant implements menu.Source.
func (c *CachedSource) Restaurant(ctx context.Context, restaurantID int64) (*menu.Restaurant, error) {
	v, err := c.load(restaurantKey(restaurantID), func() (any, error) {
		return c.next.Restaurant(ctx, restaurantID)
	})
	if err != nil {
		return nil, err
	}
	r := *v.(*menu.Restaurant)
	return &r, nil
}

// Items implements menu.Source.
func (c *CachedSource) Items(ctx context.Context, restaurantID int64) ([]menu.Item, error) {
	v, err := c.load(itemsKey(restaurantID), func() (any, error) {
		return c.next.Items(ctx, restaurantID)
	})
	if err != nil {
		return nil, err
	}
	return append([]menu.Item(nil), v.([]menu.Item)...), nil
}

// Ingredients implements menu.Source.
func (c *CachedSource) Ingredients(ctx context.Context, restaurantID int64) ([]menu.Ingredient, error) {
	v, err := c.load(ingredientsKey(restaurantID), func() (any, error) {
		return c.next.Ingredients(ctx, restaurantID)
	})
	if err != nil {
		return nil, err
	}
	return append([]menu.Ingredient(nil), v.([]menu.Ingredient)...), nil
}

// Invalidate drops every cached entry of a restaurant.
func (c *CachedSource) Invalidate(restaurantID int64) {
	c.cache.Remove(restaurantKey(restaurantID))
	c.cache.Remove(itemsKey(restaurantID))
	c.cache.Remove(ingredientsKey(restaurantID))
}

// load returns the cached value for key or fills it. Errors are not cached.
func (c *CachedSource) load(key string, fill func() (any, error)) (any, error) {
	if val, ok := c.cache.Get(key); ok {
		entry := val.(cacheEntry)
		if c.now().Before(entry.expiresAt) {
			return entry.value, nil
		}
		c.cache.Remove(key)
	}
	v, err := fill()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cacheEntry{value: v, expiresAt: c.now().Add(c.ttl)})
	return v, nil
}

func restaurantKey(id int64) string  { return fmt.Sprintf("restaurant:%d", id) }
func itemsKey(id int64) string       { return fmt.Sprintf("items:%d", id) }
func ingredientsKey(id int64) string { return fmt.Sprintf("ingredients:%d", id) }
