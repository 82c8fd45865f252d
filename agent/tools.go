package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
)

const defaultSearchResults = 5

// Toolset exposes note retrieval operations to the model. Every
// operation is scoped to one owner; a get_note call for another
// owner's note reports not-found rather than leaking it.
type Toolset struct {
	notes   storage.NoteRepository
	ranker  *search.Ranker
	ownerID string
	logger  *slog.Logger
}

// NewToolset creates the note toolset for one owner.
func NewToolset(notes storage.NoteRepository, ranker *search.Ranker, ownerID string) (*Toolset, error) {
	if notes == nil {
		return nil, ErrNoteRepositoryRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}

	return &Toolset{
		notes:   notes,
		ranker:  ranker,
		ownerID: ownerID,
		logger:  slog.Default().With("component", "agent-tools"),
	}, nil
}

// Definitions returns the tool schemas advertised to the model.
func (t *Toolset) Definitions() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "search_notes",
				Description: "Search the user's notes for text relevant to a query. Returns the best matching notes with their IDs and snippets.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Search text",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "get_note",
				Description: "Fetch the full content of one of the user's notes by its ID.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"note_id": map[string]any{
							"type":        "string",
							"description": "Note identifier from a search_notes result",
						},
					},
					"required": []string{"note_id"},
				},
			},
		},
	}
}

// Execute runs the named tool and returns its result as a string for
// the model. Failures come back as error strings, never as Go errors;
// the model gets a chance to recover or rephrase.
func (t *Toolset) Execute(ctx context.Context, name, arguments string) string {
	switch name {
	case "search_notes":
		return t.searchNotes(ctx, arguments)
	case "get_note":
		return t.getNote(ctx, arguments)
	default:
		t.logger.Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("error: unknown tool %q", name)
	}
}

type searchResult struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

func (t *Toolset) searchNotes(ctx context.Context, arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("error: invalid search_notes arguments: %v", err)
	}
	if args.Query == "" {
		return "error: search_notes requires a non-empty query"
	}

	scored, err := t.ranker.Rank(ctx, args.Query, t.ownerID, defaultSearchResults)
	if err != nil {
		t.logger.Error("search_notes failed", "err", err)
		return fmt.Sprintf("error: search failed: %v", err)
	}

	if len(scored) == 0 {
		return "no matching notes found"
	}

	results := make([]searchResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, searchResult{
			ID:      s.Note.ID,
			Title:   s.Note.Title,
			Snippet: snippet(s.Note.Content, 200),
			Score:   s.CombinedScore,
		})
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(payload)
}

type noteResult struct {
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (t *Toolset) getNote(ctx context.Context, arguments string) string {
	var args struct {
		NoteID string `json:"note_id"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("error: invalid get_note arguments: %v", err)
	}
	if args.NoteID == "" {
		return "error: get_note requires a note_id"
	}

	note, err := t.notes.GetNote(ctx, args.NoteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("error: note %s not found", args.NoteID)
		}
		t.logger.Error("get_note failed", "note", args.NoteID, "err", err)
		return fmt.Sprintf("error: %v", err)
	}

	// Ownership check: other owners' notes are indistinguishable from
	// missing ones.
	if note.OwnerID != t.ownerID {
		t.logger.Warn("get_note refused cross-owner access", "note", args.NoteID)
		return fmt.Sprintf("error: note %s not found", args.NoteID)
	}

	payload, err := json.Marshal(noteResult{
		ID:      note.ID,
		Title:   note.Title,
		Content: note.Content,
		Tags:    note.Tags,
	})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(payload)
}

// snippet truncates text to at most n bytes on a rune boundary.
func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
