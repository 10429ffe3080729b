package ingestion

import (
	"fmt"
	"io"
	"os"

	"github.com/poiesic/storefront/core"
)

// LoadProducts reads a JSON array of catalog records in the given document layout.
func LoadProducts(r io.Reader, variant core.SchemaVariant) ([]*core.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	products, err := core.UnmarshalDocuments(data, variant)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return products, nil
}

// LoadProductsFile reads a catalog file.
func LoadProductsFile(path string, variant core.SchemaVariant) ([]*core.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadProducts(f, variant)
}
