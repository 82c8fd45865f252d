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


package agent

import "errors"

var (
	// ErrModelRequired is returned when a chat model is not provided.
	ErrModelRequired = errors.New("chat model required")

	// ErrToolsetRequired is returned when a toolset is not provided.
	ErrToolsetRequired = errors.New("toolset required")

	// ErrNoteRepositoryRequired is returned when a note repository is not provided.
	ErrNoteRepositoryRequired = errors.New("note repository required")

	// ErrRankerRequired is returned when a ranker is not provided.
	ErrRankerRequired = errors.New("ranker required")

	// ErrEmptyOwner is returned when the toolset owner ID is empty.
	ErrEmptyOwner = errors.New("owner ID is empty")

	// ErrEmptyQuery is returned when the user query is empty.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrInvalidMaxToolCalls is returned when the tool call budget is not positive.
	ErrInvalidMaxToolCalls = errors.New("maxToolCalls must be greater than 0")

	// ErrNoChoices is returned when the model yields an empty response.
	ErrNoChoices = errors.New("model returned no choices")
)
