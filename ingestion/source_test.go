package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/storefront/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProducts_Flat(t *testing.T) {
	data := `[
		{"name": "Road Runner", "category": "footwear", "description": "Cushioned running shoes", "price": 119.99, "sku": "SHOE-1", "tags": ["running"]},
		{"name": "Match Ball", "category": "soccer", "description": "Size five ball", "price": 29.5, "sku": "BALL-1", "tags": []}
	]`

	products, err := LoadProducts(strings.NewReader(data), core.SchemaFlat)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "SHOE-1", products[0].SKU)
	assert.Equal(t, []string{"running"}, products[0].Tags)
	assert.Nil(t, products[0].Embedding)
}

func TestLoadProducts_Nested(t *testing.T) {
	data := `[{"page_content": "Cushioned running shoes", "metadata": {"name": "Road Runner", "category": "footwear", "price": 119.99, "sku": "SHOE-1", "tags": ["running"]}}]`

	products, err := LoadProducts(strings.NewReader(data), core.SchemaNested)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "SHOE-1", products[0].SKU)
	assert.Equal(t, "Cushioned running shoes", products[0].Description)
}

func TestLoadProducts_Malformed(t *testing.T) {
	_, err := LoadProducts(strings.NewReader(`{"not": "an array"}`), core.SchemaFlat)
	assert.Error(t, err)
}

func TestLoadProductsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"A","description":"d","sku":"A1"}]`), 0644))

	products, err := LoadProductsFile(path, core.SchemaFlat)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	_, err = LoadProductsFile(filepath.Join(t.TempDir(), "missing.json"), core.SchemaFlat)
	assert.Error(t, err)
}
