package badger

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// ProductIndex implements storage.ProductIndex for BadgerDB.
// Nearest-neighbor queries scan every product and rank by L2 distance.
type ProductIndex struct {
	backend *Backend
}

var _ storage.ProductIndex = (*ProductIndex)(nil)

// NewProductIndex creates a product index on an open backend.
func NewProductIndex(backend *Backend) storage.ProductIndex {
	return newProductIndex(backend)
}

func newProductIndex(backend *Backend) *ProductIndex {
	return &ProductIndex{backend: backend}
}

// EnsureIndex is a no-op; BadgerDB needs no schema.
func (x *ProductIndex) EnsureIndex(ctx context.Context) error {
	return nil
}

// Upsert stores the product keyed by SKU.
func (x *ProductIndex) Upsert(ctx context.Context, product *core.Product) error {
	if err := core.ValidateIndexable(product); err != nil {
		return err
	}
	value, err := core.MarshalDocument(product, core.SchemaFlat)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return x.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeProductKey(product.SKU), value)
	})
}

// GetProduct retrieves a product by SKU.
func (x *ProductIndex) GetProduct(ctx context.Context, sku string) (*core.Product, error) {
	var product *core.Product
	err := x.backend.View(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeProductKey(sku))
		if err != nil {
			return err
		}
		product, err = core.UnmarshalDocument(value, core.SchemaFlat)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Count returns the number of stored products.
func (x *ProductIndex) Count(ctx context.Context) (int, error) {
	count := 0
	err := x.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(productPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// ListProducts returns up to limit products in key order, which is SKU byte order.
func (x *ProductIndex) ListProducts(ctx context.Context, after string, limit int) ([]*core.Product, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var products []*core.Product
	err := x.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(productPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makeProductKey(after)
		for iter.Seek(start); iter.Valid() && len(products) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if after != "" && bytes.Equal(item.Key(), start) {
				continue
			}
			err := item.Value(func(val []byte) error {
				product, err := core.UnmarshalDocument(val, core.SchemaFlat)
				if err != nil {
					return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
				}
				products = append(products, product)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// SearchKNN returns the k products closest to vector by L2 distance.
// Scores follow the faiss l2 convention, 1 / (1 + d²), so closer is higher.
func (x *ProductIndex) SearchKNN(ctx context.Context, vector []float32, k int) ([]*core.ProductMatch, error) {
	if k <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	if err := core.ValidateEmbedding(vector, core.EmbeddingDimensions); err != nil {
		return nil, err
	}

	var results []*core.ProductMatch
	err := x.scan(ctx, func(product *core.Product) {
		if len(product.Embedding) != len(vector) {
			return
		}
		d2 := squaredL2(vector, product.Embedding)
		results = append(results, &core.ProductMatch{
			Product: product,
			Score:   float32(1 / (1 + d2)),
		})
	})
	if err != nil {
		return nil, err
	}

	sortMatches(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SearchText ranks products by the fraction of query terms found in their description.
func (x *ProductIndex) SearchText(ctx context.Context, query string, limit int) ([]*core.ProductMatch, error) {
	terms := tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ProductMatch
	err := x.scan(ctx, func(product *core.Product) {
		words := make(map[string]bool)
		for _, w := range tokenize(product.Description) {
			words[w] = true
		}
		hits := 0
		for _, term := range terms {
			if words[term] {
				hits++
			}
		}
		if hits == 0 {
			return
		}
		results = append(results, &core.ProductMatch{
			Product: product,
			Score:   float32(hits) / float32(len(terms)),
		})
	})
	if err != nil {
		return nil, err
	}

	sortMatches(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close is a no-op; the backend is closed by its owner.
func (x *ProductIndex) Close() error {
	return nil
}

// scan decodes every stored product and passes it to fn.
func (x *ProductIndex) scan(ctx context.Context, fn func(*core.Product)) error {
	return x.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(productPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var product *core.Product
			err := iter.Item().Value(func(val []byte) error {
				var err error
				product, err = core.UnmarshalDocument(val, core.SchemaFlat)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			fn(product)
		}
		return nil
	})
}

// sortMatches orders matches by score descending, breaking ties by SKU.
func sortMatches(matches []*core.ProductMatch) {
	slices.SortFunc(matches, func(a, b *core.ProductMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.Product.SKU, b.Product.SKU)
	})
}

// squaredL2 calculates the squared Euclidean distance of two equal-length vectors.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	if math.IsNaN(sum) {
		return math.Inf(1)
	}
	return sum
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
