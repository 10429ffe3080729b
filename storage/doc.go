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


// Package storage provides the storage abstraction layer for storefront.
//
// This package defines the interfaces that decouple the ingestion and query
// pipelines from the managed backends they talk to:
//
//   - ProductIndex: products with embeddings, nearest-neighbor and text search
//   - ProfileStore: customer profiles, whole-record reads and writes
//   - ConversationStore: append-only conversation turns per user
//
// # Constructor Return Type Pattern
//
// Public backend constructors return these interfaces so that callers never
// couple to a specific backend:
//
//	index, err := opensearch.NewProductIndex(cfg)  // returns storage.ProductIndex
//	profiles, err := redis.NewProfileStore(cfg)    // returns storage.ProfileStore
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Backends
//
//   - storage/opensearch: vector index on OpenSearch (HNSW, L2, faiss)
//   - storage/redis: profile cache and session history on Redis
//   - storage/cassandra: profiles and conversations on Cassandra
//   - storage/badger: embedded implementation of all three, for local runs and tests
//
// # Errors
//
// Lookups of absent records return ErrNotFound. Failures to reach a backend
// are reported as *ConnectionError, which matches ErrConnectionFailed under
// errors.Is.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
