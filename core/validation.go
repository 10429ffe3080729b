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


package core

import (
	"fmt"
	"math"
	"time"
)

// ValidateProduct validates the catalog fields of a Product.
//
// Validation rules:
//   - SKU, Name and Description must not be empty
//   - Price must not be negative
//
// NOT validated (populated by the ingestion pipeline):
//   - Embedding (see ValidateEmbedding)
func ValidateProduct(p *Product) error {
	if p == nil {
		return fmt.Errorf("%w: product is nil", ErrInvalidProduct)
	}
	if p.SKU == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptySKU)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyName)
	}
	if p.EmbeddingText() == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyDescription)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrNegativePrice)
	}
	return nil
}

// ValidateEmbedding checks that a vector has exactly dim finite components.
func ValidateEmbedding(vector []float32, dim int) error {
	if vector == nil {
		return fmt.Errorf("%w: embedding is nil", ErrInvalidEmbedding)
	}
	if len(vector) != dim {
		return fmt.Errorf("%w: expected %d dimensions, got %d", ErrInvalidEmbedding, dim, len(vector))
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidEmbedding, i)
		}
	}
	return nil
}

// ValidateIndexable validates a Product that is about to be written to the index.
// Both the catalog fields and the embedding must be valid.
func ValidateIndexable(p *Product) error {
	if err := ValidateProduct(p); err != nil {
		return err
	}
	if err := ValidateEmbedding(p.Embedding, EmbeddingDimensions); err != nil {
		return fmt.Errorf("%w: sku %s: %w", ErrInvalidProduct, p.SKU, err)
	}
	return nil
}

// ValidateProfile validates a CustomerProfile before it is stored.
func ValidateProfile(p *CustomerProfile) error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyUserID)
	}
	return nil
}

// ValidateTurn validates a ConversationTurn before it is appended.
func ValidateTurn(t *ConversationTurn) error {
	if t == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}
	if t.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyUserID)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is zero", ErrInvalidTurn)
	}
	if t.Timestamp.After(time.Now().Add(time.Minute)) {
		return fmt.Errorf("%w: timestamp is in the future", ErrInvalidTurn)
	}
	return nil
}
