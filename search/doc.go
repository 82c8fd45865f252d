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


// Package search implements hybrid note ranking.
//
// The Ranker combines two signals over one owner's notes:
//
//   - Lexical: TF-IDF over note titles and contents (LexicalScorer)
//   - Semantic: vector similarity from the index package
//
// Scores are blended as alpha*lexical + (1-alpha)*semantic after
// normalizing the lexical side to [0, 1]. The semantic query runs
// under a timeout and the ranker falls back to lexical-only results
// when the vector index is slow or unavailable, so search keeps
// working while the embedding service is down.
//
// The RankMonitor interface exposes each ranking stage for tests and
// diagnostic tooling.
package search
