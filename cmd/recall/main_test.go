package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestCommonFlags(t *testing.T) {
	flags := commonFlags()

	findString := func(name string) *cli.StringFlag {
		for _, flag := range flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
				return f
			}
		}
		return nil
	}

	t.Run("db is required", func(t *testing.T) {
		f := findString("db")
		require.NotNil(t, f)
		assert.True(t, f.Required)
	})

	t.Run("owner is required", func(t *testing.T) {
		f := findString("owner")
		require.NotNil(t, f)
		assert.True(t, f.Required)
	})

	t.Run("host has default value", func(t *testing.T) {
		f := findString("host")
		require.NotNil(t, f)
		assert.Equal(t, "http://localhost:11434/v1", f.Value)
	})

	t.Run("models have default values", func(t *testing.T) {
		for name, want := range map[string]string{
			"embedding-model":  "embeddinggemma",
			"chat-model":       "qwen2.5:3b",
			"classifier-model": "qwen2.5:3b",
		} {
			f := findString(name)
			require.NotNil(t, f, name)
			assert.Equal(t, want, f.Value, name)
		}
	})
}

func TestCommandValidation(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "recall",
			Commands: []*cli.Command{
				{
					Name:   "search",
					Action: searchCommand,
					Flags:  commonFlags(),
				},
			},
		}
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		err := newApp().Run([]string{"recall", "search", "--owner", "alice", "tomatoes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("missing owner flag fails", func(t *testing.T) {
		err := newApp().Run([]string{"recall", "search", "--db", t.TempDir(), "tomatoes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner")
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, input := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			app := &cli.App{
				Name: "test",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-level", Value: "info"},
				},
				Before: setupLogger,
				Action: func(c *cli.Context) error { return nil },
			}
			err := app.Run([]string{"test", "--log-level", input})
			require.NoError(t, err, input)
		}
	})

	t.Run("invalid log level fails", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		err := app.Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
