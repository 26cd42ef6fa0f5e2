// Package config loads runtime configuration from the process environment,
// with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"ytlive-notifier/pkg/notifier"
)

const (
	defaultTemplatePath = "template.txt"
	legacyTemplatePath  = "massage.txt" // historical misspelling kept for existing deployments
)

// Config holds everything a single run needs. Required fields fail fast in
// Load, before any network or filesystem I/O happens.
type Config struct {
	YouTubeAPIKey    string `env:"YOUTUBE_API_KEY"`
	YouTubeChannelID string `env:"YOUTUBE_CHANNEL_ID,required,notEmpty"`

	BlueskyHandle      string `env:"BLUESKY_HANDLE,required,notEmpty"`
	BlueskyAppPassword string `env:"BLUESKY_APP_PASSWORD,required,notEmpty"`
	BlueskyHost        string `env:"BLUESKY_HOST" envDefault:"https://bsky.social"`

	StatePath   string `env:"STATE_PATH" envDefault:".state/state.json"`
	StateBucket string `env:"STATE_BUCKET"` // Set to persist state in a GCS bucket instead of a local file

	TemplatePath    string `env:"TEMPLATE_PATH" envDefault:"template.txt"`
	MessageTemplate string `env:"MESSAGE_TEMPLATE"` // Inline template override

	EmbedMode  notifier.EmbedMode  `env:"EMBED_MODE" envDefault:"card"`
	LookupMode notifier.LookupMode `env:"LOOKUP_MODE" envDefault:"api"`

	MockPost bool `env:"MOCK_POST"` // Log the post instead of sending it
}

// Load reads the .env file when present, then parses and validates the
// environment.
func Load() (*Config, error) {
	// A missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.EmbedMode.Valid() {
		return fmt.Errorf("EMBED_MODE %q is not one of none, image, card", c.EmbedMode)
	}
	if !c.LookupMode.Valid() {
		return fmt.Errorf("LOOKUP_MODE %q is not one of api, scrape", c.LookupMode)
	}
	if c.LookupMode == notifier.LookupAPI && c.YouTubeAPIKey == "" {
		return errors.New("YOUTUBE_API_KEY is required when LOOKUP_MODE=api")
	}
	return nil
}

// TemplateCandidates lists template file paths in priority order. When the
// path was not overridden the legacy massage.txt name is honored as well, so
// deployments of either naming variant keep working.
func (c *Config) TemplateCandidates() []string {
	if c.TemplatePath != defaultTemplatePath {
		return []string{c.TemplatePath}
	}
	return []string{defaultTemplatePath, legacyTemplatePath}
}
