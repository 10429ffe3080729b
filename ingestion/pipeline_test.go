package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/ai/mock"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
	"github.com/poiesic/storefront/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) storage.ProductIndex {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores.Index
}

func newTestPipeline(t *testing.T, index storage.ProductIndex, embedder ai.Embedder, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(index, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func catalog() []*core.Product {
	return []*core.Product{
		{SKU: "SHOE-1", Name: "Road Runner", Category: "footwear", Description: "Cushioned running shoes for road training", Price: 119.99},
		{SKU: "TENT-1", Name: "Trailhead 4P", Category: "camping", Description: "Four person camping tent with rain fly", Price: 249},
		{SKU: "BALL-1", Name: "Match Ball", Category: "soccer", Description: "Size five soccer ball", Price: 29.5},
	}
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	_, err := NewPipeline(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewPipeline(newTestIndex(t), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestIngest_IndexesEveryProduct(t *testing.T) {
	index := newTestIndex(t)
	p := newTestPipeline(t, index, mock.NewMockEmbedder())
	ctx := context.Background()

	report, err := p.Ingest(ctx, catalog())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Indexed)
	assert.Empty(t, report.Failures)

	got, err := index.GetProduct(ctx, "SHOE-1")
	require.NoError(t, err)
	assert.Len(t, got.Embedding, core.EmbeddingDimensions)
}

func TestIngest_RerunOverwrites(t *testing.T) {
	index := newTestIndex(t)
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, index, embedder)
	ctx := context.Background()

	_, err := p.Ingest(ctx, catalog())
	require.NoError(t, err)
	_, err = p.Ingest(ctx, catalog())
	require.NoError(t, err)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	// No dedup: every run re-embeds
	assert.Equal(t, 6, embedder.CallCount())
}

func TestIngest_SkipsFailingRecords(t *testing.T) {
	index := newTestIndex(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "tent") {
			return nil, &ai.RequestError{Op: "embed", Attempts: 3, Err: errors.New("503")}
		}
		return mock.HashVector(text, core.EmbeddingDimensions), nil
	}
	p := newTestPipeline(t, index, embedder)
	ctx := context.Background()

	products := catalog()
	products = append(products, &core.Product{SKU: "", Name: "No SKU", Description: "broken"})

	report, err := p.Ingest(ctx, products)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Indexed)
	require.Len(t, report.Failures, 2)

	assert.Equal(t, 1, report.Failures[0].Position)
	assert.Equal(t, "TENT-1", report.Failures[0].SKU)
	assert.Equal(t, StageEmbed, report.Failures[0].Stage)
	assert.ErrorIs(t, report.Failures[0].Err, ai.ErrRequestFailed)

	assert.Equal(t, 3, report.Failures[1].Position)
	assert.Equal(t, StageValidate, report.Failures[1].Stage)
	assert.ErrorIs(t, report.Failures[1].Err, core.ErrEmptySKU)

	_, err = index.GetProduct(ctx, "TENT-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngest_RejectsMalformedEmbeddings(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{"null", nil},
		{"short", make([]float32, 768)},
		{"long", make([]float32, core.EmbeddingDimensions+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := newTestIndex(t)
			embedder := mock.NewMockEmbedder()
			embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
				return tt.vector, nil
			}
			p := newTestPipeline(t, index, embedder)

			report, err := p.Ingest(context.Background(), catalog()[:1])
			require.NoError(t, err)
			assert.Equal(t, 0, report.Indexed)
			require.Len(t, report.Failures, 1)
			assert.Equal(t, StageValidate, report.Failures[0].Stage)
			assert.ErrorIs(t, report.Failures[0].Err, core.ErrInvalidEmbedding)

			count, err := index.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})
	}
}

// failingIndex rejects writes for one SKU.
type failingIndex struct {
	storage.ProductIndex
	sku string
}

func (f *failingIndex) Upsert(ctx context.Context, p *core.Product) error {
	if p.SKU == f.sku {
		return errors.New("index unavailable")
	}
	return f.ProductIndex.Upsert(ctx, p)
}

func TestIngest_IndexWriteFailure(t *testing.T) {
	index := &failingIndex{ProductIndex: newTestIndex(t), sku: "BALL-1"}
	p := newTestPipeline(t, index, mock.NewMockEmbedder())

	report, err := p.Ingest(context.Background(), catalog())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, StageIndex, report.Failures[0].Stage)
	assert.Equal(t, "BALL-1", report.Failures[0].SKU)
}

func TestIngest_Concurrent(t *testing.T) {
	index := newTestIndex(t)
	var inFlight, peak atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		return mock.HashVector(text, core.EmbeddingDimensions), nil
	}
	p := newTestPipeline(t, index, embedder, WithPoolSize(4))

	products := make([]*core.Product, 50)
	for i := range products {
		products[i] = &core.Product{
			SKU:         fmt.Sprintf("SKU-%02d", i),
			Name:        fmt.Sprintf("Item %d", i),
			Description: fmt.Sprintf("sporting item number %d", i),
		}
	}

	report, err := p.Ingest(context.Background(), products)
	require.NoError(t, err)
	assert.Equal(t, 50, report.Indexed)
	assert.LessOrEqual(t, peak.Load(), int32(4))

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}

func TestIngest_Cancelled(t *testing.T) {
	p := newTestPipeline(t, newTestIndex(t), mock.NewMockEmbedder())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Ingest(ctx, catalog())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Indexed)
}

func TestIngest_Progress(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPipeline(t, newTestIndex(t), mock.NewMockEmbedder(), WithProgress(&buf))

	_, err := p.Ingest(context.Background(), catalog())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "3/3")
	assert.Contains(t, buf.String(), "0 failed")
}

func TestIngest_Empty(t *testing.T) {
	p := newTestPipeline(t, newTestIndex(t), mock.NewMockEmbedder())

	report, err := p.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
}
