package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// MemoryIndex is an in-memory Index used in tests. Similarity is plain
// token overlap rather than embedding distance, which keeps results
// deterministic without an embedding service.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record // owner ID -> note ID -> record
	closed  bool

	// FetchErr, UpsertErr, and QueryErr force the corresponding
	// operation to fail when set.
	FetchErr  error
	UpsertErr error
	QueryErr  error
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		records: make(map[string]map[string]*Record),
	}
}

// Fetch retrieves the stored record for a note.
func (m *MemoryIndex) Fetch(ctx context.Context, ownerID, noteID string) (*Record, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[ownerID][noteID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

// Upsert stores or replaces the record for a note.
func (m *MemoryIndex) Upsert(ctx context.Context, record *Record) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if record == nil || record.NoteID == "" || record.OwnerID == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.records[record.OwnerID]
	if !ok {
		owner = make(map[string]*Record)
		m.records[record.OwnerID] = owner
	}
	clone := *record
	owner[record.NoteID] = &clone
	return nil
}

// Delete removes a note from the index.
func (m *MemoryIndex) Delete(ctx context.Context, ownerID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records[ownerID], noteID)
	return nil
}

// Query scores every record in the owner's partition by token overlap
// with the query text.
func (m *MemoryIndex) Query(ctx context.Context, ownerID, text string, k int) ([]Hit, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	queryTokens := tokenSet(text)
	if len(queryTokens) == 0 {
		return []Hit{}, nil
	}

	var hits []Hit
	for noteID, record := range m.records[ownerID] {
		recordTokens := tokenSet(record.Text)
		if len(recordTokens) == 0 {
			continue
		}

		overlap := 0
		for token := range queryTokens {
			if _, ok := recordTokens[token]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		hits = append(hits, Hit{
			NoteID: noteID,
			Score:  float64(overlap) / float64(len(queryTokens)),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NoteID < hits[j].NoteID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	if hits == nil {
		hits = []Hit{}
	}
	return hits, nil
}

// Close marks the index as closed.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Count returns the number of records stored for an owner.
func (m *MemoryIndex) Count(ownerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[ownerID])
}

func tokenSet(text string) map[string]struct{} {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
