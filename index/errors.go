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


package index

import "errors"

var (
	// ErrRecordNotFound indicates the note is not present in the index.
	ErrRecordNotFound = errors.New("index record not found")

	// ErrIndexRequired indicates a nil Index was provided.
	ErrIndexRequired = errors.New("index is required")

	// ErrEmbedderRequired indicates a nil Embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidRecord indicates a record missing its note or owner ID.
	ErrInvalidRecord = errors.New("invalid index record")

	// ErrInvalidMaxAttempts indicates maxAttempts was not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidPoolSize indicates a worker pool size below 1.
	ErrInvalidPoolSize = errors.New("pool size must be greater than 0")
)
