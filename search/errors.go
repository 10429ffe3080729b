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


package search

import "errors"

var (
	// ErrNoMatchFound is returned when a query retrieves no products.
	ErrNoMatchFound = errors.New("no matching product found")

	// ErrEmptyQuestion is returned when the question has no searchable text.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrInvalidNeighbors is returned when the neighbor count is below one.
	ErrInvalidNeighbors = errors.New("neighbor count must be at least 1")

	// ErrIndexRequired is returned when a product index is not provided.
	ErrIndexRequired = errors.New("product index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
