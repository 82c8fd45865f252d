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


// Package storage defines the persistence interfaces for notes and chat
// sessions, plus the MUS serialization helpers shared by backends.
//
// The interfaces follow the repository pattern: the core domain depends
// on these abstractions and never on a concrete backend. The storage/badger
// sub-package provides the BadgerDB implementation used in production and,
// in in-memory mode, in tests.
package storage
