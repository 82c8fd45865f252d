package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser represents the human user.
	RoleUser Role = iota + 1
	// RoleAssistant represents the AI assistant.
	RoleAssistant
)

// Note is a single user-owned note. It is the unit of storage, indexing
// and retrieval. Mutated only through NoteRepository operations.
type Note struct {
	ID            string
	OwnerID       string
	Title         string
	Content       string
	Tags          []string
	LinkedNoteIDs []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IndexableText returns the text that is embedded and lexically scored:
// the note's title and content joined by a single space.
func (n *Note) IndexableText() string {
	return strings.TrimSpace(n.Title + " " + n.Content)
}

// ConversationTurn is a single message within a chat session.
type ConversationTurn struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Chat is an ordered, append-only sequence of conversation turns owned
// by a single user.
type Chat struct {
	ID        string
	OwnerID   string
	Turns     []ConversationTurn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LastUserTurn returns the most recent user turn, or nil if there is none.
func (c *Chat) LastUserTurn() *ConversationTurn {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleUser {
			return &c.Turns[i]
		}
	}
	return nil
}

// ScoredNote is a note paired with its per-query relevance scores.
// Transient: produced per query, never persisted.
type ScoredNote struct {
	Note *Note

	// LexicalScore is the TF-IDF score normalized to [0,1].
	LexicalScore float64

	// SemanticScore is the vector similarity score in [0,1].
	SemanticScore float64

	// CombinedScore is the blended ranking score.
	CombinedScore float64
}

// FollowUpContext is the bundle handed to the retrieval agent for one
// conversational turn: prior turns plus freshly retrieved notes.
// Built fresh per turn and never mutated after construction.
type FollowUpContext struct {
	History       []ConversationTurn
	RelevantNotes []*Note
}

// SyncResult reports the outcome of a vector index sync for one note.
type SyncResult int

const (
	// SyncSkipped means the indexed text was already current; no write happened.
	SyncSkipped SyncResult = iota + 1
	// SyncUpserted means a new or changed record was written to the index.
	SyncUpserted
)

// String returns a human-readable name for the sync result.
func (s SyncResult) String() string {
	switch s {
	case SyncSkipped:
		return "skipped"
	case SyncUpserted:
		return "upserted"
	default:
		return "unknown"
	}
}
