// Package bluesky publishes notification posts over the AT Protocol XRPC
// endpoints of a Bluesky PDS.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ytlive-notifier/pkg/notifier"
)

const (
	// DefaultHost is the public Bluesky PDS.
	DefaultHost = "https://bsky.social"

	requestTimeout = 20 * time.Second

	// The PDS rejects image blobs larger than roughly 1 MB.
	maxThumbnailBytes = 1 << 20
)

// Poster defines the publishing interface the orchestrator depends on.
type Poster interface {
	Publish(ctx context.Context, msg notifier.Message, b *notifier.Broadcast, mode notifier.EmbedMode) error
}

// Client talks to a Bluesky PDS with app-password credentials.
type Client struct {
	host       string
	identifier string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Bluesky client for the given PDS host. An empty host selects
// the public PDS.
func New(host, identifier, password string, logger *slog.Logger) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		host:       strings.TrimSuffix(host, "/"),
		identifier: identifier,
		password:   password,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		now:        time.Now,
	}
}

type session struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type facetIndex struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type facetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri"`
}

type facet struct {
	Index    facetIndex     `json:"index"`
	Features []facetFeature `json:"features"`
}

type embedImage struct {
	Alt string `json:"alt"`
	// Image is the PDS-issued blob reference, echoed back verbatim.
	Image json.RawMessage `json:"image"`
}

type imageEmbed struct {
	Type   string       `json:"$type"`
	Images []embedImage `json:"images"`
}

type externalInfo struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type externalEmbed struct {
	Type     string       `json:"$type"`
	External externalInfo `json:"external"`
}

type postRecord struct {
	Type      string   `json:"$type"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	Langs     []string `json:"langs,omitempty"`
	Facets    []facet  `json:"facets,omitempty"`
	Embed     any      `json:"embed,omitempty"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

type uploadBlobResponse struct {
	Blob json.RawMessage `json:"blob"`
}

// Publish logs in and submits one post carrying the message text, its link
// facets, and the embed selected by mode. Any authentication or submission
// failure is fatal to the run; nothing is retried and no partial post exists.
func (c *Client) Publish(ctx context.Context, msg notifier.Message, b *notifier.Broadcast, mode notifier.EmbedMode) error {
	sess, err := c.createSession(ctx)
	if err != nil {
		return fmt.Errorf("bluesky login: %w", err)
	}

	record := postRecord{
		Type:      "app.bsky.feed.post",
		Text:      msg.Text,
		CreatedAt: c.now().UTC().Format(time.RFC3339),
		Langs:     []string{"ja"},
		Facets:    toFacets(msg.Facets),
	}

	switch mode {
	case notifier.EmbedImage:
		// A broadcast without a thumbnail degrades to a plain post.
		if b.ThumbnailURL != "" {
			blob, err := c.uploadThumbnail(ctx, sess, b.ThumbnailURL)
			if err != nil {
				return fmt.Errorf("upload thumbnail: %w", err)
			}
			record.Embed = imageEmbed{
				Type:   "app.bsky.embed.images",
				Images: []embedImage{{Alt: b.Title, Image: blob}},
			}
		}
	case notifier.EmbedCard:
		record.Embed = externalEmbed{
			Type: "app.bsky.embed.external",
			External: externalInfo{
				URI:         msg.URL,
				Title:       b.Title,
				Description: "YouTube Live",
			},
		}
	case notifier.EmbedNone:
	}

	if err := c.postJSON(ctx, "com.atproto.repo.createRecord", sess.AccessJWT, createRecordRequest{
		Repo:       sess.DID,
		Collection: "app.bsky.feed.post",
		Record:     record,
	}, nil); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	c.logger.Info("Post published",
		"handle", c.identifier,
		"text_bytes", len(msg.Text),
		"facets", len(msg.Facets),
		"embed", string(mode))
	return nil
}

func (c *Client) createSession(ctx context.Context) (*session, error) {
	var sess session
	err := c.postJSON(ctx, "com.atproto.server.createSession", "", createSessionRequest{
		Identifier: c.identifier,
		Password:   c.password,
	}, &sess)
	if err != nil {
		return nil, err
	}
	if sess.AccessJWT == "" || sess.DID == "" {
		return nil, errors.New("session response missing credentials")
	}
	return &sess, nil
}

// uploadThumbnail fetches the thumbnail bytes and uploads them as a blob.
func (c *Client) uploadThumbnail(ctx context.Context, sess *session, thumbURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching thumbnail", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if len(data) > maxThumbnailBytes {
		return nil, fmt.Errorf("thumbnail exceeds %d bytes", maxThumbnailBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	upReq.Header.Set("Content-Type", contentType)
	upReq.Header.Set("Authorization", "Bearer "+sess.AccessJWT)

	start := time.Now()
	upResp, err := c.httpClient.Do(upReq)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	defer func() {
		if closeErr := upResp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	c.logger.Info("XRPC request completed",
		"endpoint", "com.atproto.repo.uploadBlob",
		"status_code", upResp.StatusCode,
		"blob_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())

	if upResp.StatusCode < 200 || upResp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(upResp.Body, 512))
		return nil, fmt.Errorf("uploadBlob: HTTP %d: %s", upResp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var ub uploadBlobResponse
	if err := json.NewDecoder(upResp.Body).Decode(&ub); err != nil {
		return nil, fmt.Errorf("decode uploadBlob response: %w", err)
	}
	if len(ub.Blob) == 0 {
		return nil, errors.New("upload response missing blob")
	}
	return ub.Blob, nil
}

// postJSON issues one XRPC procedure call with a JSON body.
func (c *Client) postJSON(ctx context.Context, nsid, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/xrpc/"+nsid, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	c.logger.Info("XRPC request completed",
		"endpoint", nsid,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: HTTP %d: %s", nsid, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", nsid, err)
		}
	}
	return nil
}

// toFacets converts domain facets to their wire form. An empty slice becomes
// nil so the field is omitted from the record entirely.
func toFacets(in []notifier.Facet) []facet {
	if len(in) == 0 {
		return nil
	}
	out := make([]facet, 0, len(in))
	for _, f := range in {
		out = append(out, facet{
			Index: facetIndex{ByteStart: f.ByteStart, ByteEnd: f.ByteEnd},
			Features: []facetFeature{{
				Type: "app.bsky.richtext.facet#link",
				URI:  f.URI,
			}},
		})
	}
	return out
}
