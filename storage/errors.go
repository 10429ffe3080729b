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
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrConnectionFailed indicates that a backend could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)

// ConnectionError reports a failure to connect to or authenticate with a backend.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports ErrConnectionFailed as a match so callers can test the category.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError wraps err as a connection failure for backend.
func NewConnectionError(backend string, err error) error {
	return &ConnectionError{Backend: backend, Err: err}
}
