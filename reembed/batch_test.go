package reembed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/ai/mock"
	"github.com/poiesic/storefront/core"
)

func listAll(t *testing.T, index interface {
	ListProducts(context.Context, string, int) ([]*core.Product, error)
}) []*core.Product {
	t.Helper()
	products, err := index.ListProducts(context.Background(), "", 1000)
	require.NoError(t, err)
	return products
}

func scaled(dim int, value float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = value
	}
	return v
}

func TestBatchProcessor_Process(t *testing.T) {
	index := setupTestIndex(t, 3)
	ctx := context.Background()
	products := listAll(t, index)

	processor := NewBatchProcessor(index, mock.NewMockEmbedder(), false)
	updated, failures, err := processor.Process(ctx, products)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 3, updated)

	for _, p := range products {
		got, err := index.GetProduct(ctx, p.SKU)
		require.NoError(t, err)
		assert.Equal(t, mock.HashVector(p.Description, core.EmbeddingDimensions), got.Embedding)
	}
}

func TestBatchProcessor_Normalize(t *testing.T) {
	index := setupTestIndex(t, 2)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = scaled(core.EmbeddingDimensions, 2)
		}
		return out, nil
	}

	processor := NewBatchProcessor(index, embedder, true)
	_, failures, err := processor.Process(ctx, listAll(t, index))
	require.NoError(t, err)
	assert.Empty(t, failures)

	got, err := index.GetProduct(ctx, "SKU000")
	require.NoError(t, err)
	var sum float64
	for _, v := range got.Embedding {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestBatchProcessor_SkipsInvalidVectors(t *testing.T) {
	index := setupTestIndex(t, 3)
	ctx := context.Background()
	products := listAll(t, index)
	stale, err := index.GetProduct(ctx, "SKU001")
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{
			scaled(core.EmbeddingDimensions, 0.1),
			scaled(core.EmbeddingDimensions-1, 0.1),
			scaled(core.EmbeddingDimensions, float32(math.NaN())),
		}, nil
	}

	updated, failures, err := NewBatchProcessor(index, embedder, false).Process(ctx, products)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	require.Len(t, failures, 2)
	assert.Equal(t, "SKU001", failures[0].SKU)
	assert.ErrorIs(t, failures[0].Err, core.ErrInvalidEmbedding)
	assert.Equal(t, "SKU002", failures[1].SKU)

	// a rejected vector leaves the stored one untouched
	got, err := index.GetProduct(ctx, "SKU001")
	require.NoError(t, err)
	assert.Equal(t, stale.Embedding, got.Embedding)
}

func TestBatchProcessor_ZeroVectorWithNormalize(t *testing.T) {
	index := setupTestIndex(t, 1)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{make([]float32, core.EmbeddingDimensions)}, nil
	}

	_, failures, err := NewBatchProcessor(index, embedder, true).Process(context.Background(), listAll(t, index))
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, ErrZeroVector)
}

func TestBatchProcessor_RequestFailure(t *testing.T) {
	index := setupTestIndex(t, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, &ai.RequestError{Op: "embed", Attempts: 3, Err: errors.New("503")}
	}

	_, failures, err := NewBatchProcessor(index, embedder, false).Process(context.Background(), listAll(t, index))
	require.NoError(t, err)
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.ErrorIs(t, f.Err, ai.ErrRequestFailed)
	}
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	index := setupTestIndex(t, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{scaled(core.EmbeddingDimensions, 0.1)}, nil
	}

	_, failures, err := NewBatchProcessor(index, embedder, false).Process(context.Background(), listAll(t, index))
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0].Err, ErrCountMismatch)
}

func TestBatchProcessor_InvalidProduct(t *testing.T) {
	index := setupTestIndex(t, 1)
	products := listAll(t, index)
	products = append(products, &core.Product{SKU: "NODESC", Name: "No description"})

	embedder := mock.NewMockEmbedder()
	updated, failures, err := NewBatchProcessor(index, embedder, false).Process(context.Background(), products)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	require.Len(t, failures, 1)
	assert.Equal(t, "NODESC", failures[0].SKU)
	assert.ErrorIs(t, failures[0].Err, core.ErrInvalidProduct)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	index := setupTestIndex(t, 0)
	embedder := mock.NewMockEmbedder()

	updated, failures, err := NewBatchProcessor(index, embedder, false).Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Zero(t, updated)
	assert.Zero(t, embedder.CallCount())
}
