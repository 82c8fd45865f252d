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


package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
)

const (
	defaultAlpha           = 0.5
	defaultSemanticTimeout = 3 * time.Second
)

// Ranker blends lexical TF-IDF scores with vector similarity into a
// single ranking. The semantic side is best-effort: when the index is
// slow or unavailable the ranker degrades to lexical-only results.
type Ranker struct {
	notes           storage.NoteRepository
	idx             index.Index
	scorer          *LexicalScorer
	alpha           float64
	semanticTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithAlpha sets the lexical weight in [0, 1]. The semantic weight is
// 1-alpha. Default is 0.5.
func WithAlpha(alpha float64) Option {
	return func(r *Ranker) error {
		if alpha < 0 || alpha > 1 {
			return ErrInvalidAlpha
		}
		r.alpha = alpha
		return nil
	}
}

// WithSemanticTimeout bounds the vector index query. Default is 3s.
func WithSemanticTimeout(d time.Duration) Option {
	return func(r *Ranker) error {
		r.semanticTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a hybrid ranker.
func NewRanker(notes storage.NoteRepository, idx index.Index, opts ...Option) (*Ranker, error) {
	if notes == nil {
		return nil, ErrNoteRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	r := &Ranker{
		notes:           notes,
		idx:             idx,
		scorer:          NewLexicalScorer(),
		alpha:           defaultAlpha,
		semanticTimeout: defaultSemanticTimeout,
		logger:          slog.Default().With("component", "ranker"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Rank scores the owner's notes against the query and returns up to
// topK results, best first.
func (r *Ranker) Rank(ctx context.Context, query, ownerID string, topK int) ([]*core.ScoredNote, error) {
	return r.RankWithMonitor(ctx, query, ownerID, topK, nil)
}

// RankWithMonitor ranks with stage callbacks. The monitor receives
// intermediate hits, degradation events, and dropped stale hits.
func (r *Ranker) RankWithMonitor(ctx context.Context, query, ownerID string, topK int, monitor RankMonitor) ([]*core.ScoredNote, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	monitor.Start(query, ownerID)

	// The owner's notes are both the lexical corpus and the authority
	// on which semantic hits still exist.
	corpus, err := r.notes.ListNotes(ctx, ownerID)
	if err != nil {
		r.logger.Error("failed to list notes for ranking", "owner", ownerID, "err", err)
		return nil, err
	}

	if len(corpus) == 0 {
		results := []*core.ScoredNote{}
		monitor.Finish(results)
		return results, nil
	}

	// Lexical and semantic run concurrently; the semantic side is
	// bounded by its own timeout.
	lexicalCh := make(chan []LexicalHit, 1)
	go func() {
		lexicalCh <- r.scorer.Score(query, corpus)
	}()

	type semanticOutcome struct {
		hits []index.Hit
		err  error
	}
	semanticCh := make(chan semanticOutcome, 1)
	go func() {
		semCtx, cancel := context.WithTimeout(ctx, r.semanticTimeout)
		defer cancel()
		hits, err := r.idx.Query(semCtx, ownerID, query, topK)
		semanticCh <- semanticOutcome{hits: hits, err: err}
	}()

	lexicalHits := <-lexicalCh
	monitor.AfterLexical(lexicalHits)

	semantic := <-semanticCh
	if semantic.err != nil {
		r.logger.Warn("semantic search degraded, ranking on lexical scores only", "owner", ownerID, "err", semantic.err)
		monitor.SemanticDegraded(semantic.err)
		semantic.hits = nil
	} else {
		monitor.AfterSemantic(semantic.hits)
	}

	results := r.combine(corpus, lexicalHits, semantic.hits, monitor)

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		if !results[i].Note.CreatedAt.Equal(results[j].Note.CreatedAt) {
			return results[i].Note.CreatedAt.After(results[j].Note.CreatedAt)
		}
		return results[i].Note.ID < results[j].Note.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	monitor.Finish(results)
	return results, nil
}

// combine merges the two score sets over the union of their candidates.
// Lexical scores are normalized to [0, 1] by the maximum; a candidate
// missing from one side contributes 0 there. Semantic hits whose note
// no longer exists in storage are dropped.
func (r *Ranker) combine(corpus []*core.Note, lexicalHits []LexicalHit, semanticHits []index.Hit, monitor RankMonitor) []*core.ScoredNote {
	byID := make(map[string]*core.Note, len(corpus))
	for _, note := range corpus {
		byID[note.ID] = note
	}

	var maxLexical float64
	for _, hit := range lexicalHits {
		if hit.Score > maxLexical {
			maxLexical = hit.Score
		}
	}

	candidates := make(map[string]*core.ScoredNote)

	for _, hit := range lexicalHits {
		normalized := 0.0
		if maxLexical > 0 {
			normalized = hit.Score / maxLexical
		}
		candidates[hit.Note.ID] = &core.ScoredNote{
			Note:         hit.Note,
			LexicalScore: normalized,
		}
	}

	for _, hit := range semanticHits {
		note, ok := byID[hit.NoteID]
		if !ok {
			// The vector record outlived its note; never surface it.
			r.logger.Debug("dropping stale semantic hit", "note", hit.NoteID)
			monitor.StaleHit(hit.NoteID)
			continue
		}

		candidate, ok := candidates[hit.NoteID]
		if !ok {
			candidate = &core.ScoredNote{Note: note}
			candidates[hit.NoteID] = candidate
		}
		candidate.SemanticScore = hit.Score
	}

	results := make([]*core.ScoredNote, 0, len(candidates))
	for _, candidate := range candidates {
		candidate.CombinedScore = r.alpha*candidate.LexicalScore + (1-r.alpha)*candidate.SemanticScore
		results = append(results, candidate)
	}
	return results
}
