package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ytlive-notifier/pkg/notifier"
)

// ScrapeLookup detects live broadcasts by fetching the channel's /live page.
// It needs no API key and consumes no API quota.
type ScrapeLookup struct {
	client    *http.Client
	channelID string
	baseURL   string // Overridden in tests
	logger    *slog.Logger
}

// NewScrape creates a scrape-backed lookup.
func NewScrape(client *http.Client, channelID string, logger *slog.Logger) *ScrapeLookup {
	return &ScrapeLookup{
		client:    client,
		channelID: channelID,
		baseURL:   "https://www.youtube.com",
		logger:    logger,
	}
}

// LiveBroadcast fetches the channel live page and inspects its canonical
// link. The page's canonical URL is a watch URL only while the channel is
// live; otherwise it points back at the channel itself.
func (l *ScrapeLookup) LiveBroadcast(ctx context.Context) (*notifier.Broadcast, error) {
	pageURL := fmt.Sprintf("%s/channel/%s/live", l.baseURL, l.channelID)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ytlive-notifier/1.0)")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch live page: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			l.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	l.logger.Info("Live page fetched",
		"url", pageURL,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from live page", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse live page: %w", err)
	}

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	videoID := watchVideoID(canonical)
	if videoID == "" {
		l.logger.Info("Channel is not live", "canonical", canonical)
		return nil, nil
	}

	b := &notifier.Broadcast{VideoID: videoID}
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		b.Title = title
	}
	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		b.ThumbnailURL = img
	}
	return b, nil
}

// watchVideoID extracts the video id from a watch URL, or returns "" when the
// URL is not a watch page.
func watchVideoID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(u.Host, "youtube.com") || u.Path != "/watch" {
		return ""
	}
	return u.Query().Get("v")
}
