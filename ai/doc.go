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


// Package ai provides abstractions for the hosted AI services used by the storefront assistant.
//
// This package defines interfaces for text embeddings and chat completions.
// Business logic (ingestion, search) depends on these abstractions rather than
// on a concrete provider.
//
// # Interfaces
//
//   - Embedder: Generates fixed-length vector embeddings from text
//   - ChatModel: Produces a free-text reply for a list of messages
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Errors
//
// Every failed hosted call is reported as a *RequestError, which matches
// ErrRequestFailed under errors.Is. Callers decide whether to skip the item
// (ingestion) or abort (query).
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(key))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "trail running shoes")
//	reply, err := provider.ChatModel().Complete(ctx, []ai.Message{
//	    {Role: ai.RoleUser, Content: "Hello"},
//	})
package ai
