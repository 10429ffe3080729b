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
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaVariant selects the on-index document layout for products.
type SchemaVariant int

const (
	// SchemaFlat stores every product field at the top level of the document.
	SchemaFlat SchemaVariant = iota + 1
	// SchemaNested stores the description as page_content and the remaining
	// catalog fields under a metadata object.
	SchemaNested
)

// String returns the configuration name of the variant.
func (v SchemaVariant) String() string {
	switch v {
	case SchemaFlat:
		return "flat"
	case SchemaNested:
		return "nested"
	default:
		return fmt.Sprintf("SchemaVariant(%d)", int(v))
	}
}

// ParseSchemaVariant converts a configuration string into a SchemaVariant.
// An empty string selects SchemaFlat.
func ParseSchemaVariant(s string) (SchemaVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat":
		return SchemaFlat, nil
	case "nested":
		return SchemaNested, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSchema, s)
	}
}

// flatDocument is the wire form of SchemaFlat.
type flatDocument struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	SKU         string    `json:"sku"`
	Tags        []string  `json:"tags"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

type nestedMetadata struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    float64  `json:"price"`
	SKU      string   `json:"sku"`
	Tags     []string `json:"tags"`
}

// nestedDocument is the wire form of SchemaNested.
type nestedDocument struct {
	PageContent string         `json:"page_content"`
	Metadata    nestedMetadata `json:"metadata"`
	Embedding   []float32      `json:"embedding,omitempty"`
}

// MarshalDocument encodes a Product in the given document variant.
func MarshalDocument(p *Product, variant SchemaVariant) ([]byte, error) {
	switch variant {
	case SchemaFlat:
		return json.Marshal(flatDocument{
			Name:        p.Name,
			Category:    p.Category,
			Description: p.Description,
			Price:       p.Price,
			SKU:         p.SKU,
			Tags:        p.Tags,
			Embedding:   p.Embedding,
		})
	case SchemaNested:
		return json.Marshal(nestedDocument{
			PageContent: p.Description,
			Metadata: nestedMetadata{
				Name:     p.Name,
				Category: p.Category,
				Price:    p.Price,
				SKU:      p.SKU,
				Tags:     p.Tags,
			},
			Embedding: p.Embedding,
		})
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, int(variant))
	}
}

// UnmarshalDocument decodes a single document of the given variant.
func UnmarshalDocument(data []byte, variant SchemaVariant) (*Product, error) {
	switch variant {
	case SchemaFlat:
		var doc flatDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.product(), nil
	case SchemaNested:
		var doc nestedDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.product(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, int(variant))
	}
}

// UnmarshalDocuments decodes a JSON array of documents of the given variant.
func UnmarshalDocuments(data []byte, variant SchemaVariant) ([]*Product, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	products := make([]*Product, 0, len(raw))
	for i, item := range raw {
		p, err := UnmarshalDocument(item, variant)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (d *flatDocument) product() *Product {
	return &Product{
		SKU:         d.SKU,
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Price:       d.Price,
		Tags:        d.Tags,
		Embedding:   d.Embedding,
	}
}

func (d *nestedDocument) product() *Product {
	return &Product{
		SKU:         d.Metadata.SKU,
		Name:        d.Metadata.Name,
		Category:    d.Metadata.Category,
		Description: d.PageContent,
		Price:       d.Metadata.Price,
		Tags:        d.Metadata.Tags,
		Embedding:   d.Embedding,
	}
}
