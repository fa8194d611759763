package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jewelry-backend/internal/cache"
)

func TestPriceCache(t *testing.T) {
	ctx := context.Background()
	client := cache.NewMemoryClient()
	prices := NewPriceCache(client, time.Minute)

	id := uuid.New()
	_, ok := prices.Get(ctx, id)
	assert.False(t, ok)

	require.NoError(t, prices.Set(ctx, &CachedPrice{ProductID: id, CalculatedPrice: 110, FinalPrice: 99, Currency: "inr"}))

	price, ok := prices.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, 99.0, price.FinalPrice)
	assert.Equal(t, "inr", price.Currency)

	raw, err := client.Get(ctx, "product:price:"+id.String())
	require.NoError(t, err)
	assert.Contains(t, raw, `"final_price":99`)

	require.NoError(t, prices.Invalidate(ctx, id, uuid.New()))
	_, ok = prices.Get(ctx, id)
	assert.False(t, ok)

	require.NoError(t, prices.Invalidate(ctx))
}

func TestPriceCacheIgnoresCorruptEntries(t *testing.T) {
	ctx := context.Background()
	client := cache.NewMemoryClient()
	prices := NewPriceCache(client, 0)

	id := uuid.New()
	require.NoError(t, client.Set(ctx, priceCacheKey(id), "not json", 0))

	_, ok := prices.Get(ctx, id)
	assert.False(t, ok)
}

func TestPriceCacheSlugMapping(t *testing.T) {
	ctx := context.Background()
	client := cache.NewMemoryClient()
	prices := NewPriceCache(client, time.Minute)

	_, ok := prices.ProductIDForSlug(ctx, "classic-band")
	assert.False(t, ok)

	id := uuid.New()
	require.NoError(t, prices.RememberSlug(ctx, "classic-band", id))

	found, ok := prices.ProductIDForSlug(ctx, "classic-band")
	require.True(t, ok)
	assert.Equal(t, id, found)

	// Price invalidation leaves the slug mapping in place.
	require.NoError(t, prices.Invalidate(ctx, id))
	_, ok = prices.ProductIDForSlug(ctx, "classic-band")
	assert.True(t, ok)

	require.NoError(t, client.Set(ctx, slugCacheKey("broken"), "not-a-uuid", 0))
	_, ok = prices.ProductIDForSlug(ctx, "broken")
	assert.False(t, ok)
}
