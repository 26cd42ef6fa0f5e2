// Package storage persists the last-notified broadcast marker.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"

	"ytlive-notifier/pkg/notifier"
)

// Store handles notification-state persistence, backed by either a local
// JSON file or a Cloud Storage object.
type Store struct {
	client    *gcs.Client
	logger    *slog.Logger
	localPath string
	bucket    string
	object    string
}

// New creates a store backed by the local filesystem.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		localPath: path,
		logger:    logger,
	}
}

// NewCloud creates a store backed by a Cloud Storage bucket object.
func NewCloud(client *gcs.Client, bucket, object string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		bucket: bucket,
		object: object,
	}
}

// Load reads the notification state. A missing file or object, or content
// that is not valid JSON, is an empty state rather than an error: the next
// broadcast simply looks new. Only genuine I/O failures are surfaced.
func (s *Store) Load(ctx context.Context) (notifier.State, error) {
	var data []byte

	if s.client == nil {
		var err error
		data, err = os.ReadFile(s.localPath)
		if err != nil {
			if os.IsNotExist(err) {
				s.logger.Debug("State file not found, starting with empty state", "path", s.localPath)
				return notifier.State{}, nil
			}
			return notifier.State{}, fmt.Errorf("read state file: %w", err)
		}
	} else {
		r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
		if err != nil {
			if errors.Is(err, gcs.ErrObjectNotExist) {
				s.logger.Debug("State object not found, starting with empty state", "bucket", s.bucket, "object", s.object)
				return notifier.State{}, nil
			}
			return notifier.State{}, fmt.Errorf("open state reader: %w", err)
		}
		defer func() {
			if closeErr := r.Close(); closeErr != nil {
				s.logger.Warn("Failed to close state reader", "error", closeErr)
			}
		}()

		data, err = io.ReadAll(r)
		if err != nil {
			return notifier.State{}, fmt.Errorf("read state object: %w", err)
		}
	}

	var st notifier.State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("State content is not valid JSON, treating as empty", "error", err)
		return notifier.State{}, nil
	}

	return st, nil
}

// Save writes the notification state as indented UTF-8 JSON, creating any
// missing parent directories on the local backend.
func (s *Store) Save(ctx context.Context, st notifier.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	// Local filesystem storage
	if s.client == nil {
		if dir := filepath.Dir(s.localPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create state directory: %w", err)
			}
		}
		if err := os.WriteFile(s.localPath, data, 0o644); err != nil {
			return fmt.Errorf("write state file: %w", err)
		}

		s.logger.Info("State saved", "path", s.localPath, "last_notified_video_id", st.LastNotifiedVideoID)
		return nil
	}

	// Cloud Storage
	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			s.logger.Warn("Failed to close writer after error", "error", closeErr)
		}
		return fmt.Errorf("write state object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close state writer: %w", err)
	}

	s.logger.Info("State saved", "bucket", s.bucket, "object", s.object, "last_notified_video_id", st.LastNotifiedVideoID)
	return nil
}
