// Package main implements a single-shot notifier that checks a YouTube
// channel for a live broadcast and announces new ones on Bluesky. Each
// invocation performs exactly one check; scheduling is left to cron or an
// equivalent external trigger.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"

	"ytlive-notifier/bluesky"
	"ytlive-notifier/compose"
	"ytlive-notifier/config"
	"ytlive-notifier/lookup"
	"ytlive-notifier/pkg/notifier"
	"ytlive-notifier/poll"
	"ytlive-notifier/storage"
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	// Structured logs go to stderr; stdout carries the single status line.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid configuration: %v\n", err)
		return 1
	}

	var store poll.Store
	if cfg.StateBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: invalid configuration: %v\n", fmt.Errorf("create storage client: %w", err))
			return 1
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("Failed to close storage client", "error", closeErr)
			}
		}()
		store = storage.NewCloud(client, cfg.StateBucket, cfg.StatePath, logger)
	} else {
		store = storage.New(cfg.StatePath, logger)
	}

	var lk poll.Lookup
	switch cfg.LookupMode {
	case notifier.LookupScrape:
		lk = lookup.NewScrape(&http.Client{Timeout: 20 * time.Second}, cfg.YouTubeChannelID, logger)
	default:
		lk = lookup.NewAPI(cfg.YouTubeAPIKey, cfg.YouTubeChannelID, logger)
	}

	var poster poll.Poster
	if cfg.MockPost {
		logger.Info("Mock post mode enabled")
		poster = bluesky.NewMockPoster(logger)
	} else {
		poster = bluesky.New(cfg.BlueskyHost, cfg.BlueskyHandle, cfg.BlueskyAppPassword, logger)
	}

	template := compose.ResolveTemplate(cfg.TemplateCandidates(), cfg.MessageTemplate, compose.DefaultTemplate)

	runner := poll.New(lk, store, poster, template, cfg.EmbedMode, logger)
	res := runner.Run(ctx)

	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", res.Err)
	}
	if res.Outcome.ExitCode() == 0 && res.Status != "" {
		fmt.Println(res.Status)
	}
	return res.Outcome.ExitCode()
}
