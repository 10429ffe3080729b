package badger

import (
	"context"
	"testing"

	"github.com/poiesic/storefront/ai/mock"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) storage.ProductIndex {
	t.Helper()
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores.Index
}

func embedded(sku, name, description string) *core.Product {
	return &core.Product{
		SKU:         sku,
		Name:        name,
		Category:    "test",
		Description: description,
		Price:       10,
		Embedding:   mock.HashVector(description, core.EmbeddingDimensions),
	}
}

func TestProductIndex_UpsertAndGet(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	product := embedded("SHOE-1", "Trail Runner", "Grippy trail running shoes")
	require.NoError(t, index.Upsert(ctx, product))

	got, err := index.GetProduct(ctx, "SHOE-1")
	require.NoError(t, err)
	assert.Equal(t, product.Name, got.Name)
	assert.Len(t, got.Embedding, core.EmbeddingDimensions)
}

func TestProductIndex_GetMissing(t *testing.T) {
	index := newTestIndex(t)

	_, err := index.GetProduct(context.Background(), "NOPE")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProductIndex_RejectsBadEmbedding(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		embedding []float32
	}{
		{"nil", nil},
		{"short", make([]float32, 3)},
		{"long", make([]float32, core.EmbeddingDimensions+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := embedded("BAD", "Bad", "bad vector")
			product.Embedding = tt.embedding
			err := index.Upsert(ctx, product)
			assert.ErrorIs(t, err, core.ErrInvalidEmbedding)
		})
	}

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProductIndex_UpsertOverwrites(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, embedded("A", "Old", "old description")))
	require.NoError(t, index.Upsert(ctx, embedded("A", "New", "new description")))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := index.GetProduct(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
}

func TestProductIndex_SearchKNN(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	products := []*core.Product{
		embedded("SHOE", "Road Runner", "Cushioned running shoes for the road"),
		embedded("TENT", "Trailhead 4P", "Four person camping tent"),
		embedded("BALL", "Match Ball", "Size five soccer ball"),
		embedded("BIKE", "Helmet", "Lightweight bike helmet"),
	}
	for _, p := range products {
		require.NoError(t, index.Upsert(ctx, p))
	}

	results, err := index.SearchKNN(ctx, mock.HashVector("running shoes", core.EmbeddingDimensions), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "SHOE", results[0].Product.SKU)
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
}

func TestProductIndex_SearchKNN_Empty(t *testing.T) {
	index := newTestIndex(t)

	results, err := index.SearchKNN(context.Background(), mock.HashVector("shoes", core.EmbeddingDimensions), 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProductIndex_SearchKNN_InvalidQuery(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	_, err := index.SearchKNN(ctx, make([]float32, 2), 3)
	assert.ErrorIs(t, err, core.ErrInvalidEmbedding)

	_, err = index.SearchKNN(ctx, mock.HashVector("x", core.EmbeddingDimensions), 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestProductIndex_SearchText(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, embedded("TENT", "Trailhead 4P", "Waterproof camping tent")))
	require.NoError(t, index.Upsert(ctx, embedded("JACKET", "Storm Shell", "Waterproof rain jacket")))
	require.NoError(t, index.Upsert(ctx, embedded("BALL", "Match Ball", "Soccer ball")))

	results, err := index.SearchText(ctx, "waterproof tent", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "TENT", results[0].Product.SKU)
	assert.Equal(t, float32(1), results[0].Score)

	results, err = index.SearchText(ctx, "kayak", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProductIndex_ListProducts(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	for _, sku := range []string{"TENT", "BALL", "SHOE", "HELM", "MAT"} {
		require.NoError(t, index.Upsert(ctx, embedded(sku, sku, "item "+sku)))
	}

	first, err := index.ListProducts(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "BALL", first[0].SKU)
	assert.Equal(t, "HELM", first[1].SKU)

	rest, err := index.ListProducts(ctx, "HELM", 10)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Equal(t, "MAT", rest[0].SKU)
	assert.Equal(t, "TENT", rest[2].SKU)
	assert.Len(t, rest[0].Embedding, core.EmbeddingDimensions)

	// a cursor between keys continues from the next SKU
	mid, err := index.ListProducts(ctx, "C", 1)
	require.NoError(t, err)
	require.Len(t, mid, 1)
	assert.Equal(t, "HELM", mid[0].SKU)

	end, err := index.ListProducts(ctx, "TENT", 10)
	require.NoError(t, err)
	assert.Empty(t, end)

	_, err = index.ListProducts(ctx, "", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
