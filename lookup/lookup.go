// Package lookup queries YouTube for a channel's current live broadcast.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"ytlive-notifier/pkg/notifier"
)

const requestTimeout = 20 * time.Second

// APILookup finds live broadcasts through the YouTube Data API v3 search
// endpoint.
type APILookup struct {
	apiKey    string
	channelID string
	endpoint  string // Overrides the API base URL in tests
	logger    *slog.Logger
}

// NewAPI creates an API-backed lookup.
func NewAPI(apiKey, channelID string, logger *slog.Logger) *APILookup {
	return &APILookup{
		apiKey:    apiKey,
		channelID: channelID,
		logger:    logger,
	}
}

// LiveBroadcast returns the channel's current live broadcast, or nil when the
// channel is not live. Transport failures and non-2xx API responses are
// errors; an empty result set is not.
func (l *APILookup) LiveBroadcast(ctx context.Context) (*notifier.Broadcast, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	opts := []option.ClientOption{option.WithAPIKey(l.apiKey)}
	if l.endpoint != "" {
		opts = append(opts, option.WithEndpoint(l.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	l.logger.Info("YouTube search starting",
		"channel_id", l.channelID,
		"event_type", "live")

	start := time.Now()
	resp, err := svc.Search.List([]string{"snippet"}).
		ChannelId(l.channelID).
		EventType("live").
		Type("video").
		Order("date").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	l.logger.Info("YouTube search completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"items", len(resp.Items))

	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	if item.Id == nil || item.Id.VideoId == "" {
		l.logger.Warn("Search result has no usable video id")
		return nil, nil
	}

	b := &notifier.Broadcast{VideoID: item.Id.VideoId}
	if item.Snippet != nil {
		b.Title = item.Snippet.Title
		b.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
	}
	return b, nil
}

// bestThumbnail picks the highest-resolution thumbnail tier available,
// skipping missing tiers.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, tier := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if tier != nil && tier.Url != "" {
			return tier.Url
		}
	}
	return ""
}
