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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/search"
)

func main() {
	app := &cli.App{
		Name:  "recall",
		Usage: "Hybrid retrieval and conversational context for personal notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "backfill",
				Usage:  "Re-sync all of an owner's notes into the vector index",
				Action: backfillCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent sync workers",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed syncs",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 200 * time.Millisecond,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N notes",
						Value: 100,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Rank an owner's notes against a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.Float64Flag{
						Name:  "alpha",
						Usage: "Lexical weight in the combined score (0..1)",
						Value: 0.5,
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against an owner's notes",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "chat",
						Usage: "Chat ID to continue; omit to start a new chat",
					},
					&cli.StringFlag{
						Name:  "lookup-model",
						Usage: "Chat model for lookup-style queries",
					},
					&cli.StringFlag{
						Name:  "reasoning-model",
						Usage: "Chat model for reasoning-style queries",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags are shared by every command that opens the database.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the data directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "owner",
			Aliases:  []string{"o"},
			Usage:    "Owner whose notes to operate on",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "classifier-model",
			Usage: "Classifier model name",
			Value: "qwen2.5:3b",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithClassifierModel(c.String("classifier-model")),
	)
}

func backfillCommand(c *cli.Context) error {
	ctx := context.Background()
	ownerID := c.String("owner")

	db, err := recall.NewDatabase(c.String("db"),
		recall.WithAIConfig(aiConfigFromFlags(c)),
		recall.WithSyncerOptions(
			index.WithPoolSize(c.Int("pool-size")),
			index.WithMaxRetries(c.Int("max-retries")),
			index.WithRetryBaseDelay(c.Duration("retry-delay")),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	notes, err := db.NoteRepository().ListNotes(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}
	if len(notes) == 0 {
		fmt.Fprintf(os.Stderr, "no notes for owner %s\n", ownerID)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Backfilling %d notes for owner %s\n", len(notes), ownerID)

	progress := index.NewProgressTracker(os.Stderr, len(notes), c.Int("report-interval"))
	progress.Start()
	result, err := db.Syncer().BulkSync(ctx, notes, progress)
	progress.Finish()
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done: %d synced, %d skipped, %d failed in %s\n",
		result.Synced, result.Skipped, result.Failed, progress.Elapsed().Round(time.Millisecond))
	if result.Failed > 0 {
		return fmt.Errorf("%d notes failed to sync", result.Failed)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	db, err := recall.NewDatabase(c.String("db"),
		recall.WithAIConfig(aiConfigFromFlags(c)),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ranker, err := db.NewRanker(search.WithAlpha(c.Float64("alpha")))
	if err != nil {
		return fmt.Errorf("failed to create ranker: %w", err)
	}

	results, err := ranker.Rank(context.Background(), query, c.String("owner"), c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no matching notes")
		return nil
	}

	for i, scored := range results {
		title := scored.Note.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%2d. [%.3f] %s\n", i+1, scored.CombinedScore, title)
		fmt.Printf("    id=%s lexical=%.3f semantic=%.3f\n",
			scored.Note.ID, scored.LexicalScore, scored.SemanticScore)
		fmt.Printf("    %s\n", firstLine(scored.Note.Content))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("question is required")
	}

	aiConfig := aiConfigFromFlags(c)

	routes := map[string]string{}
	if m := c.String("lookup-model"); m != "" {
		routes["lookup"] = m
	}
	if m := c.String("reasoning-model"); m != "" {
		routes["reasoning"] = m
	}

	db, err := recall.NewDatabase(c.String("db"),
		recall.WithAIConfig(aiConfig),
		recall.WithModelRoutes(routes),
		recall.WithModelResolver(func(modelID string) (llms.Model, error) {
			return openai.NewChatModel(aiConfig, modelID)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	answer, err := db.Ask(context.Background(), c.String("owner"), c.String("chat"), query)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	fmt.Println(answer.Text)
	if answer.Degraded {
		fmt.Fprintln(os.Stderr, "(answer degraded: agent ran out of time)")
	}
	if len(answer.Notes) > 0 {
		fmt.Fprintln(os.Stderr, "\nSources:")
		for _, note := range answer.Notes {
			title := note.Title
			if title == "" {
				title = firstLine(note.Content)
			}
			fmt.Fprintf(os.Stderr, "  - %s (%s)\n", title, note.ID)
		}
	}
	fmt.Fprintf(os.Stderr, "\nchat=%s\n", answer.ChatID)
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
