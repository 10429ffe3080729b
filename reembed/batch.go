// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// Failure records a product that could not be re-embedded.
type Failure struct {
	SKU string
	Err error
}

// BatchProcessor embeds a batch of products with a single request and writes
// them back to the index.
type BatchProcessor struct {
	index     storage.ProductIndex
	embedder  ai.Embedder
	normalize bool
}

// NewBatchProcessor creates a batch processor. When normalize is set every
// vector is scaled to unit length before it is stored.
func NewBatchProcessor(index storage.ProductIndex, embedder ai.Embedder, normalize bool) *BatchProcessor {
	return &BatchProcessor{
		index:     index,
		embedder:  embedder,
		normalize: normalize,
	}
}

// Process re-embeds products and returns how many were written. Products with
// invalid catalog fields or embeddings are returned as failures and the rest
// are still written. A failed embedding request fails the whole batch; the
// returned error is non-nil only when the context ends.
func (bp *BatchProcessor) Process(ctx context.Context, products []*core.Product) (int, []Failure, error) {
	var failures []Failure
	valid := make([]*core.Product, 0, len(products))
	for _, p := range products {
		if err := core.ValidateProduct(p); err != nil {
			failures = append(failures, Failure{SKU: p.SKU, Err: err})
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return 0, failures, nil
	}

	texts := make([]string, len(valid))
	for i, p := range valid {
		texts[i] = p.EmbeddingText()
	}

	embeddings, err := bp.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(embeddings) != len(valid) {
		err = fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, len(valid), len(embeddings))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, failures, ctxErr
		}
		for _, p := range valid {
			failures = append(failures, Failure{SKU: p.SKU, Err: err})
		}
		return 0, failures, nil
	}

	updated := 0
	for i, p := range valid {
		vector := embeddings[i]
		if bp.normalize && !normalize(vector) {
			failures = append(failures, Failure{SKU: p.SKU, Err: ErrZeroVector})
			continue
		}
		if err := core.ValidateEmbedding(vector, core.EmbeddingDimensions); err != nil {
			failures = append(failures, Failure{SKU: p.SKU, Err: err})
			continue
		}

		next := *p
		next.Embedding = vector
		if err := bp.index.Upsert(ctx, &next); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return updated, failures, ctxErr
			}
			failures = append(failures, Failure{SKU: p.SKU, Err: err})
			continue
		}
		updated++
	}
	return updated, failures, nil
}
