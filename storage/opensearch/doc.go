// Package opensearch implements storage.ProductIndex on an OpenSearch cluster
// with the k-NN plugin.
//
// Indexes are created with an HNSW knn_vector field of core.EmbeddingDimensions
// dimensions, L2 space and the faiss engine. Documents follow either the flat
// or the nested layout selected by Config.Variant.
package opensearch
