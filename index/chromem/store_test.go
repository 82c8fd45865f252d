package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/index"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("", mock.NewMockEmbedder())
	require.NoError(t, err)
	return store
}

func TestStoreRequiresEmbedder(t *testing.T) {
	_, err := NewStore("", nil)
	assert.ErrorIs(t, err, index.ErrEmbedderRequired)
}

func TestStoreUpsertAndFetch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := &index.Record{
		NoteID:  "n1",
		OwnerID: "user-1",
		Text:    "Garden planted tomatoes in may",
	}
	require.NoError(t, store.Upsert(ctx, record))

	fetched, err := store.Fetch(ctx, "user-1", "n1")
	require.NoError(t, err)
	assert.Equal(t, record.Text, fetched.Text)
	assert.Equal(t, "user-1", fetched.OwnerID)

	// Replacing the text overwrites the stored document
	record.Text = "Garden planted tomatoes and basil"
	require.NoError(t, store.Upsert(ctx, record))

	fetched, err = store.Fetch(ctx, "user-1", "n1")
	require.NoError(t, err)
	assert.Contains(t, fetched.Text, "basil")
}

func TestStoreFetchMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Fetch(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, index.ErrRecordNotFound)

	require.NoError(t, store.Upsert(ctx, &index.Record{
		NoteID: "n1", OwnerID: "user-1", Text: "something",
	}))

	_, err = store.Fetch(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, index.ErrRecordNotFound)
}

func TestStoreUpsertValidation(t *testing.T) {
	store := newTestStore(t)

	err := store.Upsert(context.Background(), &index.Record{NoteID: "n1"})
	assert.ErrorIs(t, err, index.ErrInvalidRecord)
}

func TestStoreQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &index.Record{
		NoteID: "n1", OwnerID: "user-1", Text: "the quick brown fox",
	}))
	require.NoError(t, store.Upsert(ctx, &index.Record{
		NoteID: "n2", OwnerID: "user-1", Text: "meeting notes from tuesday",
	}))

	t.Run("same text is most similar", func(t *testing.T) {
		hits, err := store.Query(ctx, "user-1", "the quick brown fox", 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "n1", hits[0].NoteID)
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})

	t.Run("k larger than collection is capped", func(t *testing.T) {
		hits, err := store.Query(ctx, "user-1", "fox", 50)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("empty partition returns no hits", func(t *testing.T) {
		hits, err := store.Query(ctx, "user-2", "fox", 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("scores are non-negative", func(t *testing.T) {
		hits, err := store.Query(ctx, "user-1", "completely unrelated query", 2)
		require.NoError(t, err)
		for _, hit := range hits {
			assert.GreaterOrEqual(t, hit.Score, 0.0)
		}
	})
}

func TestStoreOwnerPartitioning(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &index.Record{
		NoteID: "n1", OwnerID: "user-1", Text: "secret plans",
	}))
	require.NoError(t, store.Upsert(ctx, &index.Record{
		NoteID: "n2", OwnerID: "user-2", Text: "secret plans",
	}))

	hits, err := store.Query(ctx, "user-1", "secret plans", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "n1", hits[0].NoteID)

	// Fetch is partitioned too
	_, err = store.Fetch(ctx, "user-1", "n2")
	assert.ErrorIs(t, err, index.ErrRecordNotFound)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &index.Record{
		NoteID: "n1", OwnerID: "user-1", Text: "to be removed",
	}))

	require.NoError(t, store.Delete(ctx, "user-1", "n1"))

	_, err := store.Fetch(ctx, "user-1", "n1")
	assert.ErrorIs(t, err, index.ErrRecordNotFound)

	// Deleting again, or from an unknown owner, is not an error
	require.NoError(t, store.Delete(ctx, "user-1", "n1"))
	require.NoError(t, store.Delete(ctx, "user-9", "n1"))
}
