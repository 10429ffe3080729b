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


package badger

import "github.com/poiesic/storefront/storage"

// Stores bundles the badger implementations of every storage interface.
type Stores struct {
	Index         storage.ProductIndex
	Profiles      storage.ProfileStore
	Conversations storage.ConversationStore
	Backend       *Backend
}

// Close closes the stores and then the backend.
func (s *Stores) Close() error {
	s.Conversations.Close()
	s.Profiles.Close()
	s.Index.Close()
	return s.Backend.Close()
}

// OpenStores opens a backend at path and creates every store on it.
func OpenStores(path string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	conversations, err := NewConversationStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Stores{
		Index:         NewProductIndex(backend),
		Profiles:      NewProfileStore(backend),
		Conversations: conversations,
		Backend:       backend,
	}, nil
}

// NewMemoryStores creates in-memory stores for testing.
// Caller must Close the result when done.
func NewMemoryStores() (*Stores, error) {
	return OpenStores("", true)
}
