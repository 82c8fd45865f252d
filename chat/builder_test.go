package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

type builderFixture struct {
	notes   storage.NoteRepository
	chats   storage.ChatRepository
	idx     *index.MemoryIndex
	builder *Builder
}

func newBuilderFixture(t *testing.T, opts ...BuilderOption) *builderFixture {
	t.Helper()

	noteRepo, chatRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		noteRepo.Close()
		chatRepo.Close()
		backend.Close()
	})

	idx := index.NewMemoryIndex()
	ranker, err := search.NewRanker(noteRepo, idx)
	require.NoError(t, err)

	builder, err := NewBuilder(chatRepo, ranker, opts...)
	require.NoError(t, err)

	return &builderFixture{notes: noteRepo, chats: chatRepo, idx: idx, builder: builder}
}

func (f *builderFixture) addNote(t *testing.T, owner, content string) *core.Note {
	t.Helper()
	ctx := context.Background()

	note, err := f.notes.CreateNote(ctx, &core.Note{OwnerID: owner, Content: content})
	require.NoError(t, err)
	require.NoError(t, f.idx.Upsert(ctx, &index.Record{
		NoteID:  note.ID,
		OwnerID: owner,
		Text:    note.IndexableText(),
	}))
	return note
}

func (f *builderFixture) newChatWithTurns(t *testing.T, owner string, turns ...core.ConversationTurn) *core.Chat {
	t.Helper()
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, owner)
	require.NoError(t, err)
	for _, turn := range turns {
		require.NoError(t, f.chats.AppendTurn(ctx, chat.ID, turn))
	}
	return chat
}

func TestBuilderValidation(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	_, err := f.builder.BuildContext(ctx, "user-1", "", "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = f.builder.BuildContext(ctx, "", "", "query")
	assert.ErrorIs(t, err, search.ErrEmptyOwner)
}

func TestBuilderConstructorValidation(t *testing.T) {
	f := newBuilderFixture(t)

	_, err := NewBuilder(nil, f.builder.ranker)
	assert.ErrorIs(t, err, ErrChatRepositoryRequired)

	_, err = NewBuilder(f.chats, nil)
	assert.ErrorIs(t, err, ErrRankerRequired)

	_, err = NewBuilder(f.chats, f.builder.ranker, WithMaxNotes(0))
	assert.ErrorIs(t, err, ErrInvalidMaxNotes)
}

func TestBuildContextNewChat(t *testing.T) {
	f := newBuilderFixture(t)
	f.addNote(t, "user-1", "tomatoes planted in the garden in may")

	fctx, err := f.builder.BuildContext(context.Background(), "user-1", "", "what did I plant in the garden")
	require.NoError(t, err)

	assert.Empty(t, fctx.History)
	require.Len(t, fctx.RelevantNotes, 1)
	assert.Contains(t, fctx.RelevantNotes[0].Content, "tomatoes")
}

func TestBuildContextMissingChatIsEmptyHistory(t *testing.T) {
	f := newBuilderFixture(t)
	f.addNote(t, "user-1", "garden tomatoes")

	fctx, err := f.builder.BuildContext(context.Background(), "user-1", "no-such-chat", "garden")
	require.NoError(t, err)
	assert.Empty(t, fctx.History)
	assert.Len(t, fctx.RelevantNotes, 1)
}

func TestBuildContextLongQueryNotFolded(t *testing.T) {
	f := newBuilderFixture(t)
	f.addNote(t, "user-1", "dentist appointment on march 3rd")
	f.addNote(t, "user-1", "garden tomatoes planted in may")

	chat := f.newChatWithTurns(t, "user-1",
		core.ConversationTurn{Role: core.RoleUser, Content: "tell me about the garden"},
		core.ConversationTurn{Role: core.RoleAssistant, Content: "You planted tomatoes in May."},
	)

	// Six tokens: ranked on its own, not folded with the garden turn
	fctx, err := f.builder.BuildContext(context.Background(), "user-1", chat.ID,
		"when is my dentist appointment exactly")
	require.NoError(t, err)

	require.NotEmpty(t, fctx.RelevantNotes)
	assert.Contains(t, fctx.RelevantNotes[0].Content, "dentist")
}

func TestBuildContextShortFollowUpFolded(t *testing.T) {
	f := newBuilderFixture(t)
	f.addNote(t, "user-1", "garden tomatoes planted in may")
	f.addNote(t, "user-1", "dentist appointment on march 3rd")

	chat := f.newChatWithTurns(t, "user-1",
		core.ConversationTurn{Role: core.RoleUser, Content: "what did I plant in the garden"},
		core.ConversationTurn{Role: core.RoleAssistant, Content: "You planted tomatoes in May."},
	)

	// "and then?" alone matches nothing; folded with the previous user
	// turn it should retrieve the garden note.
	fctx, err := f.builder.BuildContext(context.Background(), "user-1", chat.ID, "and then?")
	require.NoError(t, err)

	require.NotEmpty(t, fctx.RelevantNotes)
	assert.Contains(t, fctx.RelevantNotes[0].Content, "garden")
}

func TestBuildContextShortQueryWithoutHistoryNotFolded(t *testing.T) {
	f := newBuilderFixture(t)
	f.addNote(t, "user-1", "rent is due on the 1st")

	fctx, err := f.builder.BuildContext(context.Background(), "user-1", "", "rent due")
	require.NoError(t, err)

	require.Len(t, fctx.RelevantNotes, 1)
	assert.Contains(t, fctx.RelevantNotes[0].Content, "rent")
}

func TestBuildContextDoesNotMutateStoredTurns(t *testing.T) {
	f := newBuilderFixture(t)
	f.addNote(t, "user-1", "garden tomatoes")

	chat := f.newChatWithTurns(t, "user-1",
		core.ConversationTurn{Role: core.RoleUser, Content: "garden?"},
	)

	fctx, err := f.builder.BuildContext(context.Background(), "user-1", chat.ID, "tomatoes")
	require.NoError(t, err)

	// Mutating the returned history must not touch storage
	fctx.History = append(fctx.History, core.ConversationTurn{
		Role: core.RoleUser, Content: "injected",
	})

	turns, err := f.chats.GetTurns(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "garden?", turns[0].Content)
}

func TestBuildContextRespectsMaxNotes(t *testing.T) {
	f := newBuilderFixture(t, WithMaxNotes(2))
	for i := 0; i < 5; i++ {
		f.addNote(t, "user-1", "fox sighting "+string(rune('a'+i)))
	}

	fctx, err := f.builder.BuildContext(context.Background(), "user-1", "", "fox sighting report")
	require.NoError(t, err)
	assert.Len(t, fctx.RelevantNotes, 2)
}
