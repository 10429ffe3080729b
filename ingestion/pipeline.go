package ingestion

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

const (
	defaultPoolSize       = 1
	defaultReportInterval = 10
)

// Pipeline embeds product descriptions and writes the products to a search index.
// Records are processed by a bounded worker pool; a failing record is reported
// and skipped without stopping the batch.
type Pipeline struct {
	index    storage.ProductIndex
	proc     processor
	pool     *ants.Pool
	poolSize int
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of records processed concurrently.
// Default is 1, which processes records in order.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress reports progress to w while ingesting.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(index storage.ProductIndex, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		index:    index,
		poolSize: defaultPoolSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	pool, err := ants.NewPool(p.poolSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	p.proc, err = newEmbeddingProcessor(index, embedder, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// Ingest embeds and indexes every product. Per-record failures are logged and
// collected in the report; the returned error is non-nil only when the batch
// itself cannot continue, such as on context cancellation.
func (p *Pipeline) Ingest(ctx context.Context, products []*core.Product) (*Report, error) {
	report := &Report{Total: len(products)}
	if len(products) == 0 {
		return report, nil
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(products), defaultReportInterval)
		tracker.Start()
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(position int, product *core.Product, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.addFailure(position, product, err)
		} else {
			report.Indexed++
		}
		if tracker == nil {
			return
		}
		if err != nil {
			tracker.Fail()
		} else {
			tracker.Increment(1)
		}
	}

	p.logger.Info("ingesting products", "count", len(products), "workers", p.poolSize)
	var batchErr error
	for i, product := range products {
		if err := ctx.Err(); err != nil {
			batchErr = err
			break
		}
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			err := p.proc.process(ctx, product)
			if err != nil {
				p.logger.Warn("skipping product", "position", i, "sku", skuOf(product), "err", err)
			}
			record(i, product, err)
		})
		if submitErr != nil {
			wg.Done()
			batchErr = submitErr
			break
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	report.sortFailures()
	p.logger.Info("ingestion finished", "indexed", report.Indexed, "failed", len(report.Failures))
	return report, batchErr
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func skuOf(p *core.Product) string {
	if p == nil {
		return ""
	}
	return p.SKU
}
