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


package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/philippgille/chromem-go"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/index"
)

// Store implements index.Index using chromem-go. Each owner gets a
// dedicated collection so queries can never cross owner boundaries;
// the owner ID is additionally stored as document metadata and applied
// as a query filter.
type Store struct {
	db       *chromem.DB
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ index.Index = (*Store)(nil)

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	compress bool
}

// WithCompress enables gzip compression of persisted collections.
func WithCompress(compress bool) Option {
	return func(c *storeConfig) {
		c.compress = compress
	}
}

// NewStore creates a chromem-backed index. An empty path keeps all
// data in memory, which is what tests and ephemeral setups want.
func NewStore(path string, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, index.ErrEmbedderRequired
	}

	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, err
		}
		var err error
		db, err = chromem.NewPersistentDB(path, cfg.compress)
		if err != nil {
			return nil, fmt.Errorf("opening vector index at %s: %w", path, err)
		}
	}

	return &Store{
		db:       db,
		embedder: embedder,
		logger:   slog.Default().With("component", "chromem-index"),
	}, nil
}

// collectionName returns the per-owner collection identifier.
func collectionName(ownerID string) string {
	return "notes_" + ownerID
}

// embeddingFunc adapts the ai.Embedder to chromem's callback.
func (s *Store) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedText(ctx, text)
	}
}

// Fetch retrieves the stored record for a note.
func (s *Store) Fetch(ctx context.Context, ownerID, noteID string) (*index.Record, error) {
	col := s.db.GetCollection(collectionName(ownerID), s.embeddingFunc())
	if col == nil {
		return nil, index.ErrRecordNotFound
	}

	doc, err := col.GetByID(ctx, noteID)
	if err != nil {
		return nil, index.ErrRecordNotFound
	}

	return &index.Record{
		NoteID:  doc.ID,
		OwnerID: ownerID,
		Text:    doc.Content,
	}, nil
}

// Upsert stores or replaces the record for a note, embedding its text.
func (s *Store) Upsert(ctx context.Context, record *index.Record) error {
	if record == nil || record.NoteID == "" || record.OwnerID == "" {
		return index.ErrInvalidRecord
	}

	col, err := s.db.GetOrCreateCollection(collectionName(record.OwnerID), nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("getting collection for owner %s: %w", record.OwnerID, err)
	}

	doc := chromem.Document{
		ID:       record.NoteID,
		Metadata: map[string]string{"owner_id": record.OwnerID},
		Content:  record.Text,
	}

	if err := col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("indexing note %s: %w", record.NoteID, err)
	}

	s.logger.Debug("indexed note", "note", record.NoteID, "owner", record.OwnerID)
	return nil
}

// Delete removes a note from the index. Unindexed notes are ignored.
func (s *Store) Delete(ctx context.Context, ownerID, noteID string) error {
	col := s.db.GetCollection(collectionName(ownerID), s.embeddingFunc())
	if col == nil {
		return nil
	}

	if _, err := col.GetByID(ctx, noteID); err != nil {
		return nil
	}

	if err := col.Delete(ctx, nil, nil, noteID); err != nil {
		return fmt.Errorf("deleting note %s from index: %w", noteID, err)
	}
	return nil
}

// Query returns up to k hits within one owner's partition, most
// similar first. Negative similarities are clamped to zero so callers
// can treat scores as [0, 1].
func (s *Store) Query(ctx context.Context, ownerID, text string, k int) ([]index.Hit, error) {
	col := s.db.GetCollection(collectionName(ownerID), s.embeddingFunc())
	if col == nil {
		return []index.Hit{}, nil
	}

	// chromem requires nResults <= document count
	count := col.Count()
	if count == 0 {
		return []index.Hit{}, nil
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return []index.Hit{}, nil
	}

	results, err := col.Query(ctx, text, k, map[string]string{"owner_id": ownerID}, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index for owner %s: %w", ownerID, err)
	}

	hits := make([]index.Hit, 0, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if score < 0 {
			score = 0
		}
		hits = append(hits, index.Hit{NoteID: r.ID, Score: score})
	}

	return hits, nil
}

// Close releases index resources. chromem persists writes eagerly, so
// there is nothing to flush.
func (s *Store) Close() error {
	return nil
}
