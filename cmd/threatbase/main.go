// Copyright 2025 Corvusec
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
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/corvusec/threatbase"
	"github.com/corvusec/threatbase/ai"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/feeds"
	"github.com/corvusec/threatbase/ingestion"
	"github.com/corvusec/threatbase/server"
)

func main() {
	app := &cli.App{
		Name:  "threatbase",
		Usage: "Threat intelligence knowledge store and feed ingestion service",
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
				Name:   "serve",
				Usage:  "Run the HTTP API and feed polling service",
				Action: serveCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:    "listen",
						Usage:   "API listen address",
						Value:   ":8080",
						EnvVars: []string{"THREATBASE_LISTEN"},
					},
					&cli.StringFlag{
						Name:    "metrics-listen",
						Usage:   "Prometheus metrics listen address",
						Value:   ":9090",
						EnvVars: []string{"THREATBASE_METRICS_LISTEN"},
					},
					&cli.StringFlag{
						Name:    "feeds-config",
						Usage:   "Path to a TOML file of feed definitions to register at startup",
						EnvVars: []string{"THREATBASE_FEEDS_CONFIG"},
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for candidate classification (0 = half the CPUs)",
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Print aggregate store statistics",
				Action: statsCommand,
				Flags:  databaseFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search stored indicators",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				),
			},
			{
				Name:   "add-feed",
				Usage:  "Register a feed in the store",
				Action: addFeedCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Feed name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "endpoint",
						Usage:    "Feed endpoint URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "encoding",
						Usage: "Payload encoding (json, xml, delimited, text)",
						Value: "json",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Interval between poll cycles",
						Value: 15 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "active",
						Usage: "Start polling this feed immediately",
						Value: true,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"THREATBASE_DB"},
		},
		&cli.BoolFlag{
			Name:    "heuristic",
			Usage:   "Classify with built-in rules instead of a model endpoint",
			EnvVars: []string{"THREATBASE_HEURISTIC"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"THREATBASE_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "classifier-host",
			Usage:   "Classifier service host URL (defaults to embedding-host)",
			EnvVars: []string{"THREATBASE_CLASSIFIER_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"THREATBASE_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "classifier-model",
			Usage:   "Classifier model name",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"THREATBASE_CLASSIFIER_MODEL"},
		},
	}
}

func openDatabase(c *cli.Context) (*threatbase.Database, error) {
	if c.Bool("heuristic") {
		return threatbase.NewDatabase(c.String("db"), threatbase.WithHeuristicClassification())
	}

	classifierHost := c.String("classifier-host")
	if classifierHost == "" {
		classifierHost = c.String("embedding-host")
	}
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithClassifierHost(classifierHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithClassifierModel(c.String("classifier-model")),
	)
	return threatbase.NewDatabase(c.String("db"), threatbase.WithAIConfig(cfg))
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	registry, err := db.NewFeedRegistry(ctx)
	if err != nil {
		return err
	}
	if path := c.String("feeds-config"); path != "" {
		if err := feeds.RegisterConfigured(ctx, registry, path); err != nil {
			return fmt.Errorf("loading feeds config: %w", err)
		}
	}

	var coordinatorOpts []ingestion.Option
	if size := c.Int("pool-size"); size > 0 {
		coordinatorOpts = append(coordinatorOpts, ingestion.WithPoolSize(size))
	}
	coordinator, err := db.NewCoordinator(coordinatorOpts...)
	if err != nil {
		return err
	}
	defer coordinator.Release()

	service, err := db.NewFeedService(registry, coordinator)
	if err != nil {
		return err
	}
	service.Start(ctx)
	defer service.Stop()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	srv := server.New(db, searcher, registry, slog.Default())
	srv.StartMetrics(c.String("metrics-listen"))

	httpServer := &http.Server{
		Addr:    c.String("listen"),
		Handler: srv.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("serving", "listen", c.String("listen"), "metrics", c.String("metrics-listen"))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats, err := db.GetStatistics(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Indicators: %d\n", stats.TotalIndicators)
	printDistribution("Risk levels", stats.RiskDistribution)
	printDistribution("Categories", stats.CategoryDistribution)
	fmt.Printf("Analyses: %d\n", stats.TotalAnalyses)
	printDistribution("Analysis types", stats.AnalysisDistribution)
	return nil
}

func printDistribution(title string, dist map[string]int64) {
	if len(dist) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for label, count := range dist {
		fmt.Printf("  %-16s %d\n", label, count)
	}
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	matches, err := searcher.FindSimilar(context.Background(), query, c.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Printf("Found %d hits\n", len(matches))
	for i, hit := range matches {
		fmt.Printf("%d: %s %s/%s seen %d times [%0.3f]\n",
			i, hit.Record.Indicator, hit.Record.RiskLevel, hit.Record.Category,
			hit.Record.TimesSeen, hit.Similarity)
	}
	return nil
}

func addFeedCommand(c *cli.Context) error {
	ctx := context.Background()

	encoding := core.ParseFeedEncoding(c.String("encoding"))
	if encoding == core.FeedEncodingUnknown {
		return fmt.Errorf("unknown feed encoding %q", c.String("encoding"))
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	registry, err := db.NewFeedRegistry(ctx)
	if err != nil {
		return err
	}

	feed := &core.FeedDescriptor{
		Name:         c.String("name"),
		Endpoint:     c.String("endpoint"),
		Encoding:     encoding,
		PollInterval: c.Duration("poll-interval"),
		Active:       c.Bool("active"),
	}
	if err := registry.Add(ctx, feed); err != nil {
		return err
	}

	fmt.Printf("Registered feed %q (%s every %s)\n", feed.Name, feed.Encoding, feed.PollInterval)
	return nil
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
