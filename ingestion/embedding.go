package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// embeddingProcessor validates a product, embeds its description and indexes it.
type embeddingProcessor struct {
	index    storage.ProductIndex
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(index storage.ProductIndex, embedder ai.Embedder, logger *slog.Logger) (*embeddingProcessor, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		index:    index,
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

func (ep *embeddingProcessor) process(ctx context.Context, product *core.Product) error {
	if err := core.ValidateProduct(product); err != nil {
		return &StageError{Stage: StageValidate, Err: err}
	}

	ep.logger.Debug("embedding product", "sku", product.SKU)
	vector, err := ep.embedder.EmbedText(ctx, product.EmbeddingText())
	if err != nil {
		return &StageError{Stage: StageEmbed, Err: err}
	}
	if err := core.ValidateEmbedding(vector, core.EmbeddingDimensions); err != nil {
		return &StageError{Stage: StageValidate, Err: err}
	}

	// Index a copy so the caller's record is left untouched
	indexed := *product
	indexed.Embedding = vector
	if err := ep.index.Upsert(ctx, &indexed); err != nil {
		return &StageError{Stage: StageIndex, Err: fmt.Errorf("sku %s: %w", product.SKU, err)}
	}
	return nil
}
