package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %s vs %s", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNote_IndexableText(t *testing.T) {
	tests := []struct {
		name string
		note Note
		want string
	}{
		{
			name: "title and content",
			note: Note{Title: "Japan trip", Content: "We visited Kyoto in spring."},
			want: "Japan trip We visited Kyoto in spring.",
		},
		{
			name: "content only",
			note: Note{Content: "untitled thought"},
			want: "untitled thought",
		},
		{
			name: "title only",
			note: Note{Title: "Groceries"},
			want: "Groceries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.note.IndexableText(); got != tt.want {
				t.Errorf("IndexableText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChat_LastUserTurn(t *testing.T) {
	now := time.Now().UTC()

	t.Run("empty chat", func(t *testing.T) {
		c := &Chat{}
		if got := c.LastUserTurn(); got != nil {
			t.Errorf("LastUserTurn() = %v, want nil", got)
		}
	})

	t.Run("assistant turns only", func(t *testing.T) {
		c := &Chat{Turns: []ConversationTurn{
			{Role: RoleAssistant, Content: "hello", CreatedAt: now},
		}}
		if got := c.LastUserTurn(); got != nil {
			t.Errorf("LastUserTurn() = %v, want nil", got)
		}
	})

	t.Run("returns most recent user turn", func(t *testing.T) {
		c := &Chat{Turns: []ConversationTurn{
			{Role: RoleUser, Content: "first", CreatedAt: now},
			{Role: RoleAssistant, Content: "reply", CreatedAt: now},
			{Role: RoleUser, Content: "second", CreatedAt: now},
			{Role: RoleAssistant, Content: "reply again", CreatedAt: now},
		}}
		got := c.LastUserTurn()
		if got == nil || got.Content != "second" {
			t.Errorf("LastUserTurn() = %v, want turn with content %q", got, "second")
		}
	})
}

func TestSyncResult_String(t *testing.T) {
	if SyncSkipped.String() != "skipped" {
		t.Errorf("SyncSkipped.String() = %q", SyncSkipped.String())
	}
	if SyncUpserted.String() != "upserted" {
		t.Errorf("SyncUpserted.String() = %q", SyncUpserted.String())
	}
	if SyncResult(0).String() != "unknown" {
		t.Errorf("SyncResult(0).String() = %q", SyncResult(0).String())
	}
}
