package opensearch

import (
	"encoding/json"

	"github.com/poiesic/storefront/core"
)

// vectorField is the document field holding the product embedding.
const vectorField = "embedding"

// efSearch is the HNSW candidate list size used at query time.
const efSearch = 100

type object = map[string]any

func knnVectorMapping() object {
	return object{
		"type":      "knn_vector",
		"dimension": core.EmbeddingDimensions,
		"method": object{
			"name":       "hnsw",
			"space_type": "l2",
			"engine":     "faiss",
		},
	}
}

// indexBody returns the create-index request body for variant.
func indexBody(variant core.SchemaVariant) ([]byte, error) {
	var properties object
	switch variant {
	case core.SchemaFlat:
		properties = object{
			"name":        object{"type": "text"},
			"category":    object{"type": "text"},
			"description": object{"type": "text"},
			"price":       object{"type": "float"},
			"sku":         object{"type": "keyword"},
			"tags":        object{"type": "keyword"},
			vectorField:   knnVectorMapping(),
		}
	case core.SchemaNested:
		properties = object{
			"page_content": object{"type": "text"},
			"metadata": object{
				"type": "object",
				"properties": object{
					"name":     object{"type": "text"},
					"category": object{"type": "text"},
					"price":    object{"type": "float"},
					"sku":      object{"type": "keyword"},
					"tags":     object{"type": "keyword"},
				},
			},
			vectorField: knnVectorMapping(),
		}
	default:
		return nil, core.ErrUnknownSchema
	}

	return json.Marshal(object{
		"settings": object{
			"index": object{
				"knn":                     true,
				"knn.algo_param.ef_search": efSearch,
			},
		},
		"mappings": object{"properties": properties},
	})
}

// textField is the analyzed field matched by full-text queries.
func textField(variant core.SchemaVariant) string {
	if variant == core.SchemaNested {
		return "page_content"
	}
	return "description"
}

// knnQuery builds a k-NN search body. The vector is omitted from returned sources.
func knnQuery(vector []float32, k int) ([]byte, error) {
	return json.Marshal(object{
		"size":    k,
		"_source": object{"excludes": []string{vectorField}},
		"query": object{
			"knn": object{
				vectorField: object{
					"vector": vector,
					"k":      k,
				},
			},
		},
	})
}

// matchQuery builds a full-text search body.
func matchQuery(variant core.SchemaVariant, query string, limit int) ([]byte, error) {
	return json.Marshal(object{
		"size":    limit,
		"_source": object{"excludes": []string{vectorField}},
		"query": object{
			"match": object{
				textField(variant): object{"query": query},
			},
		},
	})
}

// skuField is the keyword field holding the SKU in variant.
func skuField(variant core.SchemaVariant) string {
	if variant == core.SchemaNested {
		return "metadata.sku"
	}
	return "sku"
}

// listQuery builds a page of products sorted by SKU, continuing after the
// given SKU with search_after.
func listQuery(variant core.SchemaVariant, after string, limit int) ([]byte, error) {
	body := object{
		"size":    limit,
		"_source": object{"excludes": []string{vectorField}},
		"query":   object{"match_all": object{}},
		"sort":    []object{{skuField(variant): "asc"}},
	}
	if after != "" {
		body["search_after"] = []string{after}
	}
	return json.Marshal(body)
}

// countQuery builds a search body that only counts documents.
func countQuery() []byte {
	return []byte(`{"size":0,"track_total_hits":true,"query":{"match_all":{}}}`)
}
