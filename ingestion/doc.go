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


// Package ingestion loads product catalogs into a search index.
//
// The Pipeline type runs each catalog record through the same steps:
//   - Validate the record
//   - Embed its description with an ai.Embedder
//   - Check the embedding has exactly core.EmbeddingDimensions finite components
//   - Upsert the product into a storage.ProductIndex keyed by SKU
//
// Records are processed on a bounded worker pool. A record that fails any step
// is logged, recorded in the Report and skipped; the rest of the batch continues.
// Re-running a catalog re-embeds every record and overwrites the existing documents.
package ingestion
