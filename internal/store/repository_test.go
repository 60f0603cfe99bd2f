package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibersift/fibersift/internal/catalog"
)

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func cottonProduct(url, name, category string, price *float64) catalog.Product {
	return catalog.Product{
		URL:               url,
		Name:              name,
		Category:          category,
		Price:             price,
		CompositionRaw:    "95% Cotton, 5% Elastane",
		CottonPercentage:  95,
		IsCottonQualified: true,
	}
}

func TestUpsertBatchIdempotent(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	m := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	first := cottonProduct("https://shop.example.com/p1.html", "Crew Tee", "tops", fp(19.90))
	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{first}))

	now = now.Add(time.Hour)
	updated := first
	updated.Name = "Crew Neck Tee"
	updated.Price = fp(14.90)
	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{updated}))

	got, err := m.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1, "re-ingesting the same URL must not duplicate")

	assert.Equal(t, "Crew Neck Tee", got[0].Name)
	assert.Equal(t, 14.90, *got[0].Price)
	assert.Equal(t, now.Add(-time.Hour), got[0].CreatedAt, "CreatedAt is set once")
	assert.Equal(t, now, got[0].UpdatedAt, "UpdatedAt follows every upsert")
}

func TestUpsertBatchRescrapeClearsMissingFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	full := cottonProduct("https://shop.example.com/p1.html", "Crew Tee", "tops", fp(19.90))
	full.Brand = "Basics Co"
	full.Images = []string{"https://cdn.example.com/p1.jpg"}
	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{full}))

	// Rescrape that failed to extract price, brand and images.
	sparse := cottonProduct("https://shop.example.com/p1.html", "Crew Tee", "tops", nil)
	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{sparse}))

	got, err := m.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Price, "stale price must not survive a rescrape")
	assert.Empty(t, got[0].Brand)
	assert.Empty(t, got[0].Images)
}

func TestUpsertBatchLastWriteWinsInBatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	url := "https://shop.example.com/p1.html"
	batch := []catalog.Product{
		cottonProduct(url, "First Pass", "tops", fp(10)),
		cottonProduct(url, "Second Pass", "tops", fp(12)),
	}
	require.NoError(t, m.UpsertBatch(ctx, batch))

	got, err := m.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Second Pass", got[0].Name)
}

func TestQueryCategoryExpansion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{
		cottonProduct("https://shop.example.com/p1.html", "Crew Tee", "tee", fp(10)),
		cottonProduct("https://shop.example.com/p2.html", "Oxford", "shirt", fp(20)),
		cottonProduct("https://shop.example.com/p3.html", "Straight Jeans", "jeans", fp(30)),
	}))

	got, err := m.Query(ctx, Filter{Category: "tops"})
	require.NoError(t, err)
	require.Len(t, got, 2, "a category filter matches every stored surface form")
	for _, p := range got {
		assert.Equal(t, catalog.CategoryTops, p.Category, "results carry the canonical category")
	}
}

func TestQueryCottonCarveOut(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	curatedZero := cottonProduct("https://shop.example.com/p2.html", "Summer Pick", "accessories", fp(25))
	curatedZero.CottonPercentage = 0
	curatedZero.IsCottonQualified = false
	curatedZero.IsCurated = true

	taxonomyZero := cottonProduct("https://shop.example.com/p3.html", "Plain Piece", "tops", fp(18))
	taxonomyZero.CottonPercentage = 0
	taxonomyZero.IsCottonQualified = false

	strayZero := cottonProduct("https://shop.example.com/p4.html", "Mystery Item", "accessories", fp(9))
	strayZero.CottonPercentage = 0
	strayZero.IsCottonQualified = false

	blend := cottonProduct("https://shop.example.com/p5.html", "Blend Tee", "tops", fp(12))
	blend.CottonPercentage = 40

	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{
		cottonProduct("https://shop.example.com/p1.html", "Crew Tee", "tops", fp(15)),
		curatedZero,
		taxonomyZero,
		strayZero,
		blend,
	}))

	got, err := m.Query(ctx, Filter{})
	require.NoError(t, err)

	urls := make(map[string]bool)
	for _, p := range got {
		urls[p.URL] = true
	}
	assert.True(t, urls["https://shop.example.com/p1.html"], "qualified product included")
	assert.True(t, urls["https://shop.example.com/p2.html"], "curated zero reading included")
	assert.True(t, urls["https://shop.example.com/p3.html"], "taxonomy zero reading included")
	assert.False(t, urls["https://shop.example.com/p4.html"], "stray zero reading excluded")
	assert.False(t, urls["https://shop.example.com/p5.html"], "measured blend below floor excluded")

	// An explicit floor disables the carve-out entirely.
	got, err = m.Query(ctx, Filter{MinCotton: ip(50)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://shop.example.com/p1.html", got[0].URL)
}

func TestQueryPriceSort(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	unpriced := cottonProduct("https://shop.example.com/p3.html", "No Price Tee", "tops", nil)
	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{
		cottonProduct("https://shop.example.com/p1.html", "Mid Tee", "tops", fp(29.90)),
		cottonProduct("https://shop.example.com/p2.html", "Cheap Tee", "tops", fp(9.90)),
		unpriced,
		cottonProduct("https://shop.example.com/p4.html", "Dear Tee", "tops", fp(49.90)),
	}))

	got, err := m.Query(ctx, Filter{Category: "tops"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "Cheap Tee", got[0].Name)
	assert.Equal(t, "Mid Tee", got[1].Name)
	assert.Equal(t, "Dear Tee", got[2].Name)
	assert.Equal(t, "No Price Tee", got[3].Name, "unpriced items sort last")
}

func TestQueryMaxPrice(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{
		cottonProduct("https://shop.example.com/p1.html", "Cheap Tee", "tops", fp(9.90)),
		cottonProduct("https://shop.example.com/p2.html", "Dear Tee", "tops", fp(49.90)),
		cottonProduct("https://shop.example.com/p3.html", "No Price Tee", "tops", nil),
	}))

	got, err := m.Query(ctx, Filter{MaxPrice: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cheap Tee", got[0].Name)
}

func TestQuerySearch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	skirt := cottonProduct("https://shop.example.com/p1.html", "Pleated Midi", "skirts", fp(35))
	linen := cottonProduct("https://shop.example.com/p2.html", "Beach Shirt", "tops", fp(25))
	linen.CompositionRaw = "55% Linen, 45% Cotton"

	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{skirt, linen}))

	// A category word finds category members even when no field contains it.
	got, err := m.Query(ctx, Filter{Search: "skirt"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pleated Midi", got[0].Name)

	// Plain terms match the fabric text.
	got, err = m.Query(ctx, Filter{Search: "linen"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Beach Shirt", got[0].Name)

	got, err = m.Query(ctx, Filter{Search: "velvet"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListCategoriesNormalized(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.UpsertBatch(ctx, []catalog.Product{
		cottonProduct("https://shop.example.com/p1.html", "Crew Tee", "tee", fp(10)),
		cottonProduct("https://shop.example.com/p2.html", "Straight Jeans", "jeans", fp(30)),
		cottonProduct("https://shop.example.com/p3.html", "Wrap Dress", "dresses", fp(40)),
		cottonProduct("https://shop.example.com/p4.html", "Tote", "accessories", fp(20)),
	}))

	got, err := m.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"accessories", "dresses", "pants", "tops"}, got)
}
