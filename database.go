// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package recall is a hybrid note retrieval and conversational context
// engine: notes live in badger, their embeddings in a chromem vector
// index, and queries are answered by blending lexical TF-IDF with
// semantic similarity, optionally through a tool-calling agent.
package recall

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/recall/agent"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/chat"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/index/chromem"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

const defaultSystemPrompt = "You are a personal notes assistant. Answer " +
	"from the user's own notes. Use the search_notes and get_note tools " +
	"when the provided notes are not enough, and say so plainly when the " +
	"notes contain no answer."

// ModelResolver maps a classified model ID to a usable chat model.
type ModelResolver func(modelID string) (llms.Model, error)

// Database is the process-scoped root of the engine: the badger
// backend, the note and chat repositories, the AI provider, the vector
// index and its syncer. Construct one per data directory and share it.
type Database struct {
	backend  *badger.Backend
	noteRepo storage.NoteRepository
	chatRepo storage.ChatRepository
	provider ai.AIProvider
	idx      index.Index
	syncer   *index.Syncer
	resolve  ModelResolver
	prompt   string
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig   *ai.Config
	routes     map[string]string
	provider   ai.AIProvider
	idx        index.Index
	resolve    ModelResolver
	prompt     string
	inMemory   bool
	syncerOpts []index.SyncerOption
}

// WithAIConfig overrides the default AI endpoint configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithModelRoutes maps query categories to chat model IDs for the
// LLM-backed classifier. Unset categories fall back to the default
// chat model.
func WithModelRoutes(routes map[string]string) DatabaseOption {
	return func(o *databaseOptions) {
		o.routes = routes
	}
}

// WithAIProvider injects a pre-built provider, typically a mock.
// The provider is then owned by the Database and closed with it.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithIndex injects a pre-built vector index instead of the default
// on-disk chromem store.
func WithIndex(idx index.Index) DatabaseOption {
	return func(o *databaseOptions) {
		o.idx = idx
	}
}

// WithModelResolver overrides how classified model IDs become chat
// models. The default resolver ignores the ID and returns the
// provider's configured chat model.
func WithModelResolver(resolve ModelResolver) DatabaseOption {
	return func(o *databaseOptions) {
		o.resolve = resolve
	}
}

// WithSystemPrompt overrides the agent's system prompt.
func WithSystemPrompt(prompt string) DatabaseOption {
	return func(o *databaseOptions) {
		o.prompt = prompt
	}
}

// WithInMemory keeps both badger and the vector index in memory.
// Intended for tests and throwaway sessions.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithSyncerOptions forwards options to the index syncer.
func WithSyncerOptions(opts ...index.SyncerOption) DatabaseOption {
	return func(o *databaseOptions) {
		o.syncerOpts = append(o.syncerOpts, opts...)
	}
}

// NewDatabase opens the engine rooted at filePath. Notes and chats go
// in filePath/notes, the vector index in filePath/vectors.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		prompt:   defaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(options)
	}

	notesPath := ""
	vectorsPath := ""
	if !options.inMemory {
		notesPath = filepath.Join(filePath, "notes")
		vectorsPath = filepath.Join(filePath, "vectors")
	}

	backend, err := badger.OpenBackend(notesPath, options.inMemory)
	if err != nil {
		return nil, err
	}

	noteRepo := badger.NewNoteRepository(backend)
	chatRepo := badger.NewChatRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig, options.routes)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	idx := options.idx
	if idx == nil {
		idx, err = chromem.NewStore(vectorsPath, provider.Embedder())
		if err != nil {
			provider.Close()
			backend.Close()
			return nil, err
		}
	}

	syncer, err := index.NewSyncer(idx, options.syncerOpts...)
	if err != nil {
		idx.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	resolve := options.resolve
	if resolve == nil {
		resolve = func(string) (llms.Model, error) {
			return provider.ChatModel(), nil
		}
	}

	return &Database{
		backend:  backend,
		noteRepo: noteRepo,
		chatRepo: chatRepo,
		provider: provider,
		idx:      idx,
		syncer:   syncer,
		resolve:  resolve,
		prompt:   options.prompt,
		logger:   slog.Default(),
	}, nil
}

// Close releases everything the Database owns.
func (db *Database) Close() error {
	db.syncer.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.idx.Close(); err != nil {
		db.logger.Error("error closing vector index", "err", err)
	}

	if err := db.noteRepo.Close(); err != nil {
		db.logger.Error("error closing note repository", "err", err)
		return err
	}
	if err := db.chatRepo.Close(); err != nil {
		db.logger.Error("error closing chat repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) NoteRepository() storage.NoteRepository {
	return db.noteRepo
}

func (db *Database) ChatRepository() storage.ChatRepository {
	return db.chatRepo
}

func (db *Database) Index() index.Index {
	return db.idx
}

func (db *Database) Syncer() *index.Syncer {
	return db.syncer
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewRanker builds a hybrid ranker over this Database's notes and index.
func (db *Database) NewRanker(opts ...search.Option) (*search.Ranker, error) {
	return search.NewRanker(db.noteRepo, db.idx, opts...)
}

// NewContextBuilder builds a conversation context builder over this
// Database's chats.
func (db *Database) NewContextBuilder(opts ...chat.BuilderOption) (*chat.Builder, error) {
	ranker, err := db.NewRanker()
	if err != nil {
		return nil, err
	}
	return chat.NewBuilder(db.chatRepo, ranker, opts...)
}

// NewAgentRunner builds a tool-calling agent scoped to one owner,
// running the chat model the classifier picked.
func (db *Database) NewAgentRunner(ownerID, modelID string, opts ...agent.RunnerOption) (*agent.Runner, error) {
	ranker, err := db.NewRanker()
	if err != nil {
		return nil, err
	}
	tools, err := agent.NewToolset(db.noteRepo, ranker, ownerID)
	if err != nil {
		return nil, err
	}
	model, err := db.resolve(modelID)
	if err != nil {
		return nil, err
	}
	return agent.NewRunner(model, tools, opts...)
}

// SaveNote creates or updates a note and schedules an asynchronous
// index sync. A note with an empty ID is created; otherwise the stored
// record is updated.
func (db *Database) SaveNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	var (
		saved *core.Note
		err   error
	)
	if note.ID == "" {
		saved, err = db.noteRepo.CreateNote(ctx, note)
	} else {
		saved, err = db.noteRepo.UpdateNote(ctx, note)
	}
	if err != nil {
		return nil, err
	}

	db.syncer.SyncAsync(saved)
	return saved, nil
}

// RemoveNote deletes a note and its vector record. A note already
// absent from the index is not an error.
func (db *Database) RemoveNote(ctx context.Context, id string) error {
	note, err := db.noteRepo.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if err := db.noteRepo.DeleteNote(ctx, id); err != nil {
		return err
	}
	return db.syncer.Remove(ctx, note.OwnerID, note.ID)
}

// Answer is the outcome of one Ask call.
type Answer struct {
	// ChatID identifies the chat the exchange was recorded in. When Ask
	// is called with an empty chat ID a new chat is created.
	ChatID string

	// Text is the assistant's reply.
	Text string

	// Degraded is true when the agent could not finish within its turn
	// budget and answered from retrieval alone.
	Degraded bool

	// ModelID is the chat model the classifier routed the query to.
	ModelID string

	// Notes are the notes retrieval surfaced for the query.
	Notes []*core.Note
}

// Ask runs one full conversational turn: build the follow-up context,
// route the query to a chat model, run the agent, and record both the
// user turn and the assistant reply. An empty chatID starts a new chat.
func (db *Database) Ask(ctx context.Context, ownerID, chatID, query string) (*Answer, error) {
	builder, err := db.NewContextBuilder()
	if err != nil {
		return nil, err
	}

	fctx, err := builder.BuildContext(ctx, ownerID, chatID, query)
	if err != nil {
		return nil, err
	}

	modelID, err := db.provider.Classifier().Classify(ctx, query)
	if err != nil {
		// Routing is advisory; a broken classifier must not block the turn.
		db.logger.Warn("query classification failed, using default model", "err", err)
		modelID = ""
	}

	runner, err := db.NewAgentRunner(ownerID, modelID)
	if err != nil {
		return nil, err
	}

	resp, err := runner.Run(ctx, db.prompt, fctx, query)
	if err != nil {
		return nil, err
	}

	if chatID == "" {
		session, err := db.chatRepo.CreateChat(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		chatID = session.ID
	}

	if err := db.appendExchange(ctx, chatID, query, resp.Text); err != nil {
		return nil, err
	}

	return &Answer{
		ChatID:   chatID,
		Text:     resp.Text,
		Degraded: resp.Degraded,
		ModelID:  modelID,
		Notes:    fctx.RelevantNotes,
	}, nil
}

func (db *Database) appendExchange(ctx context.Context, chatID, query, reply string) error {
	userTurn := core.ConversationTurn{Role: core.RoleUser, Content: query}
	if err := db.chatRepo.AppendTurn(ctx, chatID, userTurn); err != nil {
		return err
	}

	assistantTurn := core.ConversationTurn{Role: core.RoleAssistant, Content: reply}
	if err := db.chatRepo.AppendTurn(ctx, chatID, assistantTurn); err != nil {
		// The user turn is already recorded; surface the failure but
		// leave the chat as-is.
		db.logger.Error("failed to record assistant turn", "chatID", chatID, "err", err)
		return err
	}
	return nil
}

// Backfill re-syncs every note of one owner into the vector index.
func (db *Database) Backfill(ctx context.Context, ownerID string, progress *index.ProgressTracker) (index.BulkResult, error) {
	notes, err := db.noteRepo.ListNotes(ctx, ownerID)
	if err != nil {
		return index.BulkResult{}, err
	}
	return db.syncer.BulkSync(ctx, notes, progress)
}
