package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
)

const (
	defaultMaxNotes = 8

	// Queries shorter than this many tokens are treated as follow-ups
	// and folded together with the previous user turn for ranking.
	foldTokenThreshold = 4
)

// Builder assembles the retrieval context for one conversational turn:
// the chat's stored history plus the notes most relevant to the new
// query. It reads the chat but never writes it; appending the new
// turns is the caller's job.
type Builder struct {
	chats    storage.ChatRepository
	ranker   *search.Ranker
	maxNotes int
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithMaxNotes caps the number of retrieved notes per turn.
// Default is 8.
func WithMaxNotes(n int) BuilderOption {
	return func(b *Builder) error {
		if n <= 0 {
			return ErrInvalidMaxNotes
		}
		b.maxNotes = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a context builder.
func NewBuilder(chats storage.ChatRepository, ranker *search.Ranker, opts ...BuilderOption) (*Builder, error) {
	if chats == nil {
		return nil, ErrChatRepositoryRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}

	b := &Builder{
		chats:    chats,
		ranker:   ranker,
		maxNotes: defaultMaxNotes,
		logger:   slog.Default().With("component", "context-builder"),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// BuildContext loads the chat's history and ranks the owner's notes
// against the new query. Short follow-up queries (fewer than 4 tokens)
// are expanded with the previous user turn so "and then?" still ranks
// against the conversation's subject. A missing chat is treated as a
// new conversation with empty history.
func (b *Builder) BuildContext(ctx context.Context, ownerID, chatID, newQuery string) (*core.FollowUpContext, error) {
	if strings.TrimSpace(newQuery) == "" {
		return nil, ErrEmptyQuery
	}
	if ownerID == "" {
		return nil, search.ErrEmptyOwner
	}

	var history []core.ConversationTurn
	var lastUserTurn *core.ConversationTurn

	if chatID != "" {
		chat, err := b.chats.GetChat(ctx, chatID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			b.logger.Debug("chat not found, starting with empty history", "chat", chatID)
		case err != nil:
			return nil, err
		default:
			// Copy so later appends by the caller cannot alias the
			// stored turns.
			history = make([]core.ConversationTurn, len(chat.Turns))
			copy(history, chat.Turns)
			lastUserTurn = chat.LastUserTurn()
		}
	}

	rankQuery := newQuery
	if search.CountTokens(newQuery) < foldTokenThreshold && lastUserTurn != nil {
		rankQuery = lastUserTurn.Content + " " + newQuery
		b.logger.Debug("folded previous user turn into short follow-up query",
			"query", newQuery)
	}

	scored, err := b.ranker.Rank(ctx, rankQuery, ownerID, b.maxNotes)
	if err != nil {
		return nil, err
	}

	notes := make([]*core.Note, 0, len(scored))
	for _, s := range scored {
		notes = append(notes, s.Note)
	}

	return &core.FollowUpContext{
		History:       history,
		RelevantNotes: notes,
	}, nil
}
