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


// Package search answers shopper questions from the product index.
//
// The Searcher type runs the query pipeline strictly in sequence:
//   - Embed the question with an ai.Embedder
//   - Retrieve the nearest products from a storage.ProductIndex (k = 3 by default)
//   - Return ErrNoMatchFound when nothing is retrieved
//   - Build a prompt constrained to sporting goods around the closest product
//   - Return the chat model's reply together with the retrieved products
//
// AnswerCustomer uses a personalised prompt built from the customer's profile
// and conversation history. MatchText offers a plain full-text search over
// product descriptions that skips the embedding step.
package search
