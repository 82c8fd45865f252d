package recall

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
)

// newTestDatabase wires an in-memory Database around a scripted chat
// model and a token-overlap index fake.
func newTestDatabase(t *testing.T, chatModel *mock.MockChatModel) (*Database, *index.MemoryIndex) {
	t.Helper()

	if chatModel == nil {
		chatModel = mock.NewMockChatModel()
	}
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(),
		chatModel,
		mock.NewMockClassifier("mock-chat"),
	)

	idx := index.NewMemoryIndex()
	db, err := NewDatabase("",
		WithInMemory(),
		WithAIProvider(provider),
		WithIndex(idx),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, idx
}

// saveIndexed saves a note and syncs it into the index synchronously.
func saveIndexed(t *testing.T, db *Database, owner, title, content string) *core.Note {
	t.Helper()
	ctx := context.Background()

	note, err := db.SaveNote(ctx, &core.Note{
		OwnerID: owner,
		Title:   title,
		Content: content,
	})
	require.NoError(t, err)

	_, err = db.Syncer().Sync(ctx, note)
	require.NoError(t, err)
	return note
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.NoteRepository())
		assert.NotNil(t, db.ChatRepository())
		assert.NotNil(t, db.Index())
		assert.NotNil(t, db.Syncer())
		assert.NotNil(t, db.backend)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, _ := newTestDatabase(t, nil)

	t.Run("can create ranker", func(t *testing.T) {
		ranker, err := db.NewRanker()
		require.NoError(t, err)
		require.NotNil(t, ranker)
	})

	t.Run("can create context builder", func(t *testing.T) {
		builder, err := db.NewContextBuilder()
		require.NoError(t, err)
		require.NotNil(t, builder)
	})

	t.Run("can create agent runner", func(t *testing.T) {
		runner, err := db.NewAgentRunner("alice", "")
		require.NoError(t, err)
		require.NotNil(t, runner)
	})
}

func TestDatabase_SaveNote(t *testing.T) {
	db, idx := newTestDatabase(t, nil)
	ctx := context.Background()

	t.Run("create and index", func(t *testing.T) {
		note := saveIndexed(t, db, "alice", "Garden", "planted tomatoes in April")

		assert.NotEmpty(t, note.ID)
		assert.Equal(t, 1, idx.Count("alice"))

		stored, err := db.NoteRepository().GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "Garden", stored.Title)
	})

	t.Run("update keeps single index record", func(t *testing.T) {
		note := saveIndexed(t, db, "bob", "Bike", "fix the rear brake")

		note.Content = "fixed the rear brake, order new pads"
		updated, err := db.SaveNote(ctx, note)
		require.NoError(t, err)
		_, err = db.Syncer().Sync(ctx, updated)
		require.NoError(t, err)

		assert.Equal(t, note.ID, updated.ID)
		assert.Equal(t, 1, idx.Count("bob"))
	})

	t.Run("update of missing note fails", func(t *testing.T) {
		_, err := db.SaveNote(ctx, &core.Note{
			ID:      "nope",
			OwnerID: "alice",
			Content: "ghost",
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDatabase_RemoveNote(t *testing.T) {
	db, idx := newTestDatabase(t, nil)
	ctx := context.Background()

	note := saveIndexed(t, db, "alice", "Garden", "planted tomatoes")
	require.Equal(t, 1, idx.Count("alice"))

	require.NoError(t, db.RemoveNote(ctx, note.ID))

	_, err := db.NoteRepository().GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, idx.Count("alice"))

	assert.ErrorIs(t, db.RemoveNote(ctx, note.ID), storage.ErrNotFound)
}

func TestDatabase_Ask(t *testing.T) {
	chatModel := mock.NewMockChatModel(
		mock.TextResponse("You planted tomatoes in April."),
		mock.TextResponse("In the raised bed by the fence."),
	)
	db, _ := newTestDatabase(t, chatModel)
	ctx := context.Background()

	saveIndexed(t, db, "alice", "Garden", "planted tomatoes in April in the raised bed")

	answer, err := db.Ask(ctx, "alice", "", "when did I plant the tomatoes?")
	require.NoError(t, err)
	assert.Equal(t, "You planted tomatoes in April.", answer.Text)
	assert.False(t, answer.Degraded)
	assert.Equal(t, "mock-chat", answer.ModelID)
	require.NotEmpty(t, answer.ChatID)
	require.NotEmpty(t, answer.Notes)
	assert.Equal(t, "Garden", answer.Notes[0].Title)

	// Both turns of the exchange are recorded
	turns, err := db.ChatRepository().GetTurns(ctx, answer.ChatID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "when did I plant the tomatoes?", turns[0].Content)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)

	// A follow-up in the same chat extends the history
	followUp, err := db.Ask(ctx, "alice", answer.ChatID, "where?")
	require.NoError(t, err)
	assert.Equal(t, answer.ChatID, followUp.ChatID)

	turns, err = db.ChatRepository().GetTurns(ctx, answer.ChatID)
	require.NoError(t, err)
	assert.Len(t, turns, 4)
}

func TestDatabase_AskClassifierFailureUsesDefault(t *testing.T) {
	chatModel := mock.NewMockChatModel(mock.TextResponse("ok"))
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(),
		chatModel,
		mock.NewMockClassifier("mock-chat"),
	)
	provider.(*mock.MockProvider).GetMockClassifier().ClassifyFunc = func(ctx context.Context, query string) (string, error) {
		return "", context.DeadlineExceeded
	}

	db, err := NewDatabase("",
		WithInMemory(),
		WithAIProvider(provider),
		WithIndex(index.NewMemoryIndex()),
	)
	require.NoError(t, err)
	defer db.Close()

	answer, err := db.Ask(context.Background(), "alice", "", "anything on my plate today?")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer.Text)
	assert.Empty(t, answer.ModelID)
}

func TestDatabase_Backfill(t *testing.T) {
	db, idx := newTestDatabase(t, nil)
	ctx := context.Background()

	// Save without waiting for async sync; backfill catches up.
	for _, content := range []string{"tomatoes", "rent due friday", "call the dentist"} {
		_, err := db.NoteRepository().CreateNote(ctx, &core.Note{
			OwnerID: "alice",
			Content: content,
		})
		require.NoError(t, err)
	}

	result, err := db.Backfill(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Synced)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, idx.Count("alice"))

	// Second run is idempotent
	result, err = db.Backfill(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 3, result.Skipped)
}

func TestDatabase_AskValidation(t *testing.T) {
	db, _ := newTestDatabase(t, nil)

	_, err := db.Ask(context.Background(), "alice", "", "   ")
	assert.Error(t, err)

	_, err = db.Ask(context.Background(), "", "", "query")
	assert.Error(t, err)
}

func TestDatabase_SaveNoteAsyncSyncEventuallyIndexes(t *testing.T) {
	db, idx := newTestDatabase(t, nil)

	_, err := db.SaveNote(context.Background(), &core.Note{
		OwnerID: "alice",
		Content: "async indexing works",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return idx.Count("alice") == 1
	}, 2*time.Second, 10*time.Millisecond)
}
