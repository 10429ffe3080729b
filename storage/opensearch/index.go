package opensearch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	opensearchgo "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// ProductIndex implements storage.ProductIndex on an OpenSearch k-NN index.
type ProductIndex struct {
	client  *opensearchapi.Client
	index   string
	variant core.SchemaVariant
	logger  *slog.Logger
}

var _ storage.ProductIndex = (*ProductIndex)(nil)

// NewProductIndex connects to the cluster described by cfg and verifies it is reachable.
// Returns a *storage.ConnectionError when the cluster cannot be reached.
func NewProductIndex(ctx context.Context, cfg Config) (storage.ProductIndex, error) {
	return newProductIndex(ctx, cfg)
}

func newProductIndex(ctx context.Context, cfg Config) (*ProductIndex, error) {
	address, username, password, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	transport, err := cfg.transport()
	if err != nil {
		return nil, err
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearchgo.Config{
			Addresses: []string{address},
			Username:  username,
			Password:  password,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, storage.NewConnectionError("opensearch", err)
	}

	info, err := client.Info(ctx, nil)
	if err != nil {
		return nil, storage.NewConnectionError("opensearch", err)
	}

	x := &ProductIndex{
		client:  client,
		index:   cfg.index(),
		variant: cfg.variant(),
		logger:  slog.Default().With("component", "opensearch"),
	}
	x.logger.Debug("connected", "cluster", info.ClusterName, "version", info.Version.Number, "index", x.index)
	return x, nil
}

// EnsureIndex creates the index with the k-NN mapping of the configured variant.
func (x *ProductIndex) EnsureIndex(ctx context.Context) error {
	resp, err := x.client.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{x.index}})
	if err == nil {
		return nil
	}
	if !isNotFound(resp) {
		return fmt.Errorf("opensearch: checking index %s: %w", x.index, err)
	}

	body, err := indexBody(x.variant)
	if err != nil {
		return err
	}
	if _, err := x.client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: x.index,
		Body:  bytes.NewReader(body),
	}); err != nil {
		return fmt.Errorf("opensearch: creating index %s: %w", x.index, err)
	}
	x.logger.Info("created index", "index", x.index, "variant", x.variant)
	return nil
}

// Upsert indexes the product under its SKU and refreshes so it is immediately searchable.
func (x *ProductIndex) Upsert(ctx context.Context, product *core.Product) error {
	if err := core.ValidateIndexable(product); err != nil {
		return err
	}
	body, err := core.MarshalDocument(product, x.variant)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if _, err := x.client.Index(ctx, opensearchapi.IndexReq{
		Index:      x.index,
		DocumentID: docID(product.SKU),
		Body:       bytes.NewReader(body),
		Params:     opensearchapi.IndexParams{Refresh: "true"},
	}); err != nil {
		return fmt.Errorf("opensearch: indexing %s: %w", product.SKU, err)
	}
	return nil
}

// GetProduct fetches a product document by SKU.
func (x *ProductIndex) GetProduct(ctx context.Context, sku string) (*core.Product, error) {
	resp, err := x.client.Document.Get(ctx, opensearchapi.DocumentGetReq{
		Index:      x.index,
		DocumentID: docID(sku),
	})
	if err != nil {
		if resp != nil && isNotFound(resp.Inspect().Response) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("opensearch: getting %s: %w", sku, err)
	}
	if !resp.Found {
		return nil, storage.ErrNotFound
	}
	product, err := core.UnmarshalDocument(resp.Source, x.variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return product, nil
}

// Count returns the number of documents in the index.
func (x *ProductIndex) Count(ctx context.Context) (int, error) {
	resp, err := x.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{x.index},
		Body:    bytes.NewReader(countQuery()),
	})
	if err != nil {
		return 0, fmt.Errorf("opensearch: counting %s: %w", x.index, err)
	}
	return int(resp.Hits.Total.Value), nil
}

// ListProducts pages through the index in SKU order. Returned products
// carry no embedding.
func (x *ProductIndex) ListProducts(ctx context.Context, after string, limit int) ([]*core.Product, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	body, err := listQuery(x.variant, after, limit)
	if err != nil {
		return nil, err
	}
	matches, err := x.search(ctx, body)
	if err != nil {
		return nil, err
	}
	products := make([]*core.Product, len(matches))
	for i, m := range matches {
		products[i] = m.Product
	}
	return products, nil
}

// SearchKNN runs an approximate k-NN query on the embedding field.
func (x *ProductIndex) SearchKNN(ctx context.Context, vector []float32, k int) ([]*core.ProductMatch, error) {
	if k <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	if err := core.ValidateEmbedding(vector, core.EmbeddingDimensions); err != nil {
		return nil, err
	}
	body, err := knnQuery(vector, k)
	if err != nil {
		return nil, err
	}
	return x.search(ctx, body)
}

// SearchText runs a match query on the description field of the configured variant.
func (x *ProductIndex) SearchText(ctx context.Context, query string, limit int) ([]*core.ProductMatch, error) {
	if query == "" || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	body, err := matchQuery(x.variant, query, limit)
	if err != nil {
		return nil, err
	}
	return x.search(ctx, body)
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (x *ProductIndex) Close() error {
	return nil
}

func (x *ProductIndex) search(ctx context.Context, body []byte) ([]*core.ProductMatch, error) {
	resp, err := x.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{x.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch: searching %s: %w", x.index, err)
	}

	matches := make([]*core.ProductMatch, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		product, err := core.UnmarshalDocument(hit.Source, x.variant)
		if err != nil {
			return nil, fmt.Errorf("%w: hit %s: %w", storage.ErrSerializationFailed, hit.ID, err)
		}
		matches = append(matches, &core.ProductMatch{
			Product: product,
			Score:   float32(hit.Score),
		})
	}
	return matches, nil
}

// docID escapes a SKU for use as a path segment. The client joins document
// IDs into the request path as is.
func docID(sku string) string {
	return url.PathEscape(sku)
}

func isNotFound(resp *opensearchgo.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
