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

import "errors"

// Domain validation errors
var (
	// ErrInvalidProduct indicates a Product failed validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrEmptySKU indicates the SKU field is empty.
	ErrEmptySKU = errors.New("sku cannot be empty")

	// ErrEmptyName indicates the Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyDescription indicates there is no text to embed.
	ErrEmptyDescription = errors.New("description cannot be empty")

	// ErrNegativePrice indicates a price below zero.
	ErrNegativePrice = errors.New("price cannot be negative")

	// ErrInvalidEmbedding indicates a missing or malformed embedding vector.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrInvalidProfile indicates a CustomerProfile failed validation.
	ErrInvalidProfile = errors.New("invalid customer profile")

	// ErrInvalidTurn indicates a ConversationTurn failed validation.
	ErrInvalidTurn = errors.New("invalid conversation turn")

	// ErrEmptyUserID indicates the UserID field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrUnknownSchema indicates an unsupported document schema variant.
	ErrUnknownSchema = errors.New("unknown schema variant")
)
