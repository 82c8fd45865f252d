package storage

import (
	"context"

	"github.com/poiesic/recall/core"
)

// NoteRepository provides operations for managing notes.
// Implementations must be thread-safe and support concurrent access.
type NoteRepository interface {
	// CreateNote stores a new note. When the note's ID is empty a
	// content-addressed ID is generated. Sets CreatedAt (if unset) and
	// UpdatedAt. Returns the stored note with all fields populated.
	CreateNote(ctx context.Context, note *core.Note) (*core.Note, error)

	// UpdateNote updates an existing note. CreatedAt is preserved from
	// the stored record; UpdatedAt is refreshed.
	// Returns ErrNotFound if the note doesn't exist.
	UpdateNote(ctx context.Context, note *core.Note) (*core.Note, error)

	// DeleteNote removes a note by ID, including its owner index entry.
	// Returns ErrNotFound if the note doesn't exist.
	DeleteNote(ctx context.Context, id string) error

	// GetNote retrieves a single note by ID.
	// Returns ErrNotFound if the note doesn't exist.
	GetNote(ctx context.Context, id string) (*core.Note, error)

	// ListNotes retrieves all notes for one owner, most recent first.
	ListNotes(ctx context.Context, ownerID string) ([]*core.Note, error)

	// Close releases repository resources.
	Close() error
}

// ChatRepository provides operations for managing chat sessions and
// their turns. Turns are append-only.
type ChatRepository interface {
	// CreateChat creates an empty chat session for the owner.
	CreateChat(ctx context.Context, ownerID string) (*core.Chat, error)

	// GetChat retrieves a chat with all its turns.
	// Returns ErrNotFound if the chat doesn't exist.
	GetChat(ctx context.Context, id string) (*core.Chat, error)

	// GetTurns retrieves the ordered turns of a chat.
	// Returns ErrNotFound if the chat doesn't exist.
	GetTurns(ctx context.Context, chatID string) ([]core.ConversationTurn, error)

	// AppendTurn appends a turn to a chat. The turn's CreatedAt is set
	// if zero. Returns ErrNotFound if the chat doesn't exist.
	AppendTurn(ctx context.Context, chatID string, turn core.ConversationTurn) error

	// ListChats retrieves all chats for one owner, without ordering
	// guarantees beyond stability.
	ListChats(ctx context.Context, ownerID string) ([]*core.Chat, error)

	// DeleteChat removes a chat and its turns.
	// Returns ErrNotFound if the chat doesn't exist.
	DeleteChat(ctx context.Context, id string) error

	// Close releases repository resources.
	Close() error
}
