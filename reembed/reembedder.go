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
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/ingestion"
	"github.com/poiesic/storefront/storage"
)

// Config holds configuration for a re-embedding run.
type Config struct {
	// BatchSize is the number of products embedded per request.
	BatchSize int

	// ReportInterval is how often to report progress (number of products).
	ReportInterval int

	// Normalize scales every vector to unit length before it is stored.
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
	}
}

// Result summarises a run.
type Result struct {
	Total    int
	Updated  int
	Failures []Failure
}

// Reembedder re-embeds every product in an index.
type Reembedder struct {
	index     storage.ProductIndex
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ProductIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(index storage.ProductIndex, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		index:     index,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(index, embedder, config.Normalize),
		iterator:  NewProductIterator(index, config.BatchSize),
		logger:    slog.Default().With("component", "reembedder"),
	}, nil
}

// Run re-embeds every product. The partial Result is returned with any error.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	total, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	result := &Result{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No products found in index (0 products)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting re-embedding of %d products (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := ingestion.NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(products []*core.Product) error {
		updated, failures, err := r.processor.Process(ctx, products)
		for _, f := range failures {
			r.logger.Warn("product not re-embedded", "sku", f.SKU, "err", f.Err)
			tracker.Fail()
		}
		result.Failures = append(result.Failures, failures...)
		result.Updated += updated
		tracker.Increment(updated)
		return err
	})
	if err != nil {
		return result, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Updated %d of %d products in %v (%.1f products/sec)\n",
		result.Updated, total, elapsed.Round(time.Second), float64(result.Updated)/elapsed.Seconds())

	return result, nil
}
