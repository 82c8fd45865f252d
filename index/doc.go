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


// Package index defines the vector index abstraction and the Syncer
// that keeps it consistent with note storage.
//
// The Index interface partitions records by owner so one user's notes
// can never surface in another user's queries. The Syncer provides
// idempotent per-note synchronization, fire-and-forget async syncs,
// and concurrent bulk backfills with retry and progress reporting.
//
// The production implementation backed by chromem-go lives in the
// index/chromem sub-package. MemoryIndex is an in-process fake for
// tests.
package index
