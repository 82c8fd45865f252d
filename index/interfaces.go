package index

import "context"

// Record is the indexable projection of a note. Text is the combined
// title and content that gets embedded.
type Record struct {
	NoteID  string
	OwnerID string
	Text    string
}

// Hit is a semantic search result. Score is a similarity in [0, 1],
// higher is more similar.
type Hit struct {
	NoteID string
	Score  float64
}

// Index stores note embeddings partitioned by owner and answers
// nearest-neighbor queries. Implementations must be thread-safe.
type Index interface {
	// Fetch retrieves the stored record for a note.
	// Returns ErrRecordNotFound if the note is not indexed.
	Fetch(ctx context.Context, ownerID, noteID string) (*Record, error)

	// Upsert stores or replaces the record for a note, embedding its text.
	Upsert(ctx context.Context, record *Record) error

	// Delete removes a note from the index. Deleting a note that is
	// not indexed is not an error.
	Delete(ctx context.Context, ownerID, noteID string) error

	// Query returns up to k hits for the query text within one owner's
	// partition, most similar first. Returns an empty slice when the
	// partition is empty.
	Query(ctx context.Context, ownerID, text string, k int) ([]Hit, error)

	// Close releases index resources.
	Close() error
}
