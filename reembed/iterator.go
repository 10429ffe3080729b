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

	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// DefaultBatchSize is the default number of products fetched and embedded together.
const DefaultBatchSize = 100

// ProductIterator pages through every product in an index.
type ProductIterator struct {
	index     storage.ProductIndex
	batchSize int
}

// NewProductIterator creates an iterator. A batchSize below 1 selects DefaultBatchSize.
func NewProductIterator(index storage.ProductIndex, batchSize int) *ProductIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ProductIterator{index: index, batchSize: batchSize}
}

// ForEach calls fn with successive pages of products in SKU order. Each page
// is fetched after fn returns for the previous one, so fn may rewrite the
// products it receives. Iteration stops at the first error from fn or the index.
func (it *ProductIterator) ForEach(ctx context.Context, fn func([]*core.Product) error) error {
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := it.index.ListProducts(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		// the cursor must be taken before fn can modify the page
		after = page[len(page)-1].SKU
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < it.batchSize {
			return nil
		}
	}
}
