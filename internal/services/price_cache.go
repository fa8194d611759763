// internal/services/price_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/jewelry-backend/internal/cache"
)

// CachedPrice is the storefront view of a product price.
type CachedPrice struct {
	ProductID       uuid.UUID `json:"product_id"`
	CalculatedPrice float64   `json:"calculated_price"`
	FinalPrice      float64   `json:"final_price"`
	Currency        string    `json:"currency"`
}

// PriceCache is a cache-aside layer for storefront prices.
type PriceCache struct {
	client cache.Client
	ttl    time.Duration
}

func NewPriceCache(client cache.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{client: client, ttl: ttl}
}

func priceCacheKey(productID uuid.UUID) string {
	return "product:price:" + productID.String()
}

func slugCacheKey(slug string) string {
	return "product:slug:" + slug
}

// Get returns the cached price and whether it was found. Corrupt entries
// are treated as misses.
func (c *PriceCache) Get(ctx context.Context, productID uuid.UUID) (*CachedPrice, bool) {
	raw, err := c.client.Get(ctx, priceCacheKey(productID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logrus.WithError(err).Warn("Price cache read failed")
		}
		return nil, false
	}

	var price CachedPrice
	if err := json.Unmarshal([]byte(raw), &price); err != nil {
		return nil, false
	}
	return &price, true
}

func (c *PriceCache) Set(ctx context.Context, price *CachedPrice) error {
	data, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("failed to encode cached price: %w", err)
	}
	return c.client.Set(ctx, priceCacheKey(price.ProductID), data, c.ttl)
}

func (c *PriceCache) Invalidate(ctx context.Context, productIDs ...uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = priceCacheKey(id)
	}
	return c.client.Delete(ctx, keys...)
}

// ProductIDForSlug returns the product id remembered for a storefront slug.
func (c *PriceCache) ProductIDForSlug(ctx context.Context, slug string) (uuid.UUID, bool) {
	raw, err := c.client.Get(ctx, slugCacheKey(slug))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logrus.WithError(err).Warn("Slug cache read failed")
		}
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RememberSlug maps a slug to its product. Slugs are never reassigned, so
// the mapping is not invalidated with the price.
func (c *PriceCache) RememberSlug(ctx context.Context, slug string, productID uuid.UUID) error {
	return c.client.Set(ctx, slugCacheKey(slug), productID.String(), c.ttl)
}
