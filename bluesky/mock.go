package bluesky

import (
	"context"
	"log/slog"

	"ytlive-notifier/pkg/notifier"
)

// MockPoster logs the post instead of sending it, for local development.
type MockPoster struct {
	logger *slog.Logger
}

// NewMockPoster creates a new mock poster.
func NewMockPoster(logger *slog.Logger) *MockPoster {
	return &MockPoster{
		logger: logger,
	}
}

// Publish logs the would-be post.
func (m *MockPoster) Publish(_ context.Context, msg notifier.Message, b *notifier.Broadcast, mode notifier.EmbedMode) error {
	m.logger.Info("MOCK POST",
		"text", msg.Text,
		"url", msg.URL,
		"video_id", b.VideoID,
		"facets", len(msg.Facets),
		"embed", string(mode))
	return nil
}
