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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/storefront/core"
)

// MarshalProfile serializes a CustomerProfile to its JSON record form.
func MarshalProfile(profile *core.CustomerProfile) ([]byte, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalProfile deserializes a CustomerProfile.
func UnmarshalProfile(data []byte) (*core.CustomerProfile, error) {
	var profile core.CustomerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &profile, nil
}

// MarshalTurn serializes a ConversationTurn.
func MarshalTurn(turn *core.ConversationTurn) ([]byte, error) {
	data, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalTurn deserializes a ConversationTurn.
func UnmarshalTurn(data []byte) (*core.ConversationTurn, error) {
	var turn core.ConversationTurn
	if err := json.Unmarshal(data, &turn); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &turn, nil
}
