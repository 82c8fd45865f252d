package storage

import (
	"testing"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	note := &core.Note{
		ID:            "abc123",
		OwnerID:       "owner-1",
		Title:         "Japan trip",
		Content:       "We visited Kyoto and Nara in spring.",
		Tags:          []string{"travel", "japan"},
		LinkedNoteIDs: []string{"def456"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	data := MarshalNote(note)
	got, err := UnmarshalNote(data)
	require.NoError(t, err)

	assert.Equal(t, note.ID, got.ID)
	assert.Equal(t, note.OwnerID, got.OwnerID)
	assert.Equal(t, note.Title, got.Title)
	assert.Equal(t, note.Content, got.Content)
	assert.Equal(t, note.Tags, got.Tags)
	assert.Equal(t, note.LinkedNoteIDs, got.LinkedNoteIDs)
	assert.True(t, note.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, note.UpdatedAt.Equal(got.UpdatedAt))
}

func TestNoteRoundTrip_EmptyCollections(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	note := &core.Note{
		ID:        "abc123",
		OwnerID:   "owner-1",
		Content:   "untitled, untagged",
		CreatedAt: now,
		UpdatedAt: now,
	}

	data := MarshalNote(note)
	got, err := UnmarshalNote(data)
	require.NoError(t, err)

	assert.Empty(t, got.Tags)
	assert.Empty(t, got.LinkedNoteIDs)
	assert.Equal(t, note.Content, got.Content)
}

func TestChatRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	chat := &core.Chat{
		ID:      "chat-1",
		OwnerID: "owner-1",
		Turns: []core.ConversationTurn{
			{Role: core.RoleUser, Content: "Tell me about my trip to Japan", CreatedAt: now},
			{Role: core.RoleAssistant, Content: "You wrote three notes about Kyoto.", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data := MarshalChat(chat)
	got, err := UnmarshalChat(data)
	require.NoError(t, err)

	assert.Equal(t, chat.ID, got.ID)
	assert.Equal(t, chat.OwnerID, got.OwnerID)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, core.RoleUser, got.Turns[0].Role)
	assert.Equal(t, chat.Turns[0].Content, got.Turns[0].Content)
	assert.Equal(t, core.RoleAssistant, got.Turns[1].Role)
}

func TestUnmarshalNote_Truncated(t *testing.T) {
	note := &core.Note{ID: "abc", OwnerID: "owner-1", Content: "hello world"}
	data := MarshalNote(note)

	_, err := UnmarshalNote(data[:3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
