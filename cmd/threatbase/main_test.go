package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	newApp := func() *cli.App {
		return &cli.App{
			Name: "threatbase",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			err := newApp().Run([]string{"threatbase", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := newApp().Run([]string{"threatbase", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestAddFeedCommandRejectsUnknownEncoding(t *testing.T) {
	app := &cli.App{
		Name: "threatbase",
		Commands: []*cli.Command{
			{
				Name:   "add-feed",
				Action: addFeedCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "endpoint", Required: true},
					&cli.StringFlag{Name: "encoding", Value: "json"},
				),
			},
		},
	}

	dir := t.TempDir()
	err := app.Run([]string{
		"threatbase", "add-feed",
		"--db", dir,
		"--name", "urlhaus",
		"--endpoint", "https://feeds.example.com/urlhaus",
		"--encoding", "yaml",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feed encoding")
	// the database must not have been opened
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
