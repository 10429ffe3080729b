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


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestFailed matches every *RequestError via errors.Is.
	ErrRequestFailed = errors.New("hosted model request failed")

	// ErrEmptyText is returned when asked to embed empty or whitespace-only text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyReply is returned when the chat model returns no choices.
	ErrEmptyReply = errors.New("chat model returned no choices")

	// ErrInvalidMaxAttempts is returned by Retry when no attempt is allowed.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

// RequestError reports a failed call to a hosted embedding or chat model.
type RequestError struct {
	Op       string // "embed" or "chat"
	Model    string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request to %s failed after %d attempt(s): %v", e.Op, e.Model, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}
