package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytlive-notifier/pkg/notifier"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingFileIsEmptyState(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "state.json"), testLogger())

	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if st.LastNotifiedVideoID != "" {
		t.Errorf("Load() marker = %q, want empty", st.LastNotifiedVideoID)
	}
}

func TestLoadCorruptFileIsEmptyState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated json", content: `{"last_notified_video_id": "abc`},
		{name: "not json at all", content: "massage"},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			st, err := New(path, testLogger()).Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v, want nil", err)
			}
			if st.LastNotifiedVideoID != "" {
				t.Errorf("Load() marker = %q, want empty", st.LastNotifiedVideoID)
			}
		})
	}
}

func TestSaveCreatesParentsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".state", "deep", "state.json")
	s := New(path, testLogger())
	ctx := context.Background()

	if err := s.Save(ctx, notifier.State{LastNotifiedVideoID: "abc123"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	// Human-diffable: the durable key at an indented position.
	if !strings.Contains(string(data), "\n  \"last_notified_video_id\": \"abc123\"") {
		t.Errorf("state file not indented JSON with marker: %s", data)
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.LastNotifiedVideoID != "abc123" {
		t.Errorf("Load() marker = %q, want %q", st.LastNotifiedVideoID, "abc123")
	}
}

func TestSaveOverwritesPreviousMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path, testLogger())
	ctx := context.Background()

	for _, id := range []string{"abc123", "xyz789"} {
		if err := s.Save(ctx, notifier.State{LastNotifiedVideoID: id}); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.LastNotifiedVideoID != "xyz789" {
		t.Errorf("Load() marker = %q, want %q", st.LastNotifiedVideoID, "xyz789")
	}
}
