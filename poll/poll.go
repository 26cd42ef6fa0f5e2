// Package poll runs one detect-and-notify cycle for the configured channel.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ytlive-notifier/compose"
	"ytlive-notifier/pkg/notifier"
)

// Outcome classifies how a run ended. The process exit code is derived from
// it and nothing else.
type Outcome int

const (
	OutcomeIdle            Outcome = iota // No live broadcast
	OutcomeAlreadyNotified                // Broadcast was announced on an earlier run
	OutcomeNotified                       // Announced and marker persisted
	OutcomeLookupFailed
	OutcomePublishFailed
)

// ExitCode maps an outcome to the process exit-code contract: 0 for success
// or no-op, 2 for lookup failure, 3 for publish failure.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeLookupFailed:
		return 2
	case OutcomePublishFailed:
		return 3
	default:
		return 0
	}
}

// Lookup finds the channel's current live broadcast.
type Lookup interface {
	LiveBroadcast(ctx context.Context) (*notifier.Broadcast, error)
}

// Store persists the notification marker.
type Store interface {
	Load(ctx context.Context) (notifier.State, error)
	Save(ctx context.Context, st notifier.State) error
}

// Poster publishes the composed message.
type Poster interface {
	Publish(ctx context.Context, msg notifier.Message, b *notifier.Broadcast, mode notifier.EmbedMode) error
}

// Result carries the outcome, a human-readable status line for stdout, and
// the underlying error when something failed.
type Result struct {
	Outcome Outcome
	Status  string
	Err     error
}

// Runner sequences one notification cycle.
type Runner struct {
	lookup   Lookup
	store    Store
	poster   Poster
	template string
	embed    notifier.EmbedMode
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a runner.
func New(lookup Lookup, store Store, poster Poster, template string, embed notifier.EmbedMode, logger *slog.Logger) *Runner {
	return &Runner{
		lookup:   lookup,
		store:    store,
		poster:   poster,
		template: template,
		embed:    embed,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one cycle: load the marker, look up the live broadcast,
// publish if it is new, persist the marker. The marker is only advanced after
// a successful publish, so a failed run retries the same broadcast next time
// instead of silently giving up.
func (r *Runner) Run(ctx context.Context) Result {
	state, err := r.store.Load(ctx)
	if err != nil {
		// Nothing was published and nothing changed; classified with lookup
		// failures since the run died before reaching the social service.
		return Result{
			Outcome: OutcomeLookupFailed,
			Status:  "state load failed",
			Err:     fmt.Errorf("load state: %w", err),
		}
	}

	b, err := r.lookup.LiveBroadcast(ctx)
	if err != nil {
		return Result{
			Outcome: OutcomeLookupFailed,
			Status:  "live lookup failed",
			Err:     fmt.Errorf("live lookup failed: %w", err),
		}
	}

	if b == nil {
		r.logger.Info("No live broadcast detected")
		return Result{Outcome: OutcomeIdle, Status: "No live broadcast detected."}
	}

	if b.VideoID == state.LastNotifiedVideoID {
		r.logger.Info("Broadcast already announced", "video_id", b.VideoID)
		return Result{
			Outcome: OutcomeAlreadyNotified,
			Status:  fmt.Sprintf("Already notified for video_id=%s", b.VideoID),
		}
	}

	r.logger.Info("New broadcast detected",
		"video_id", b.VideoID,
		"title", b.Title,
		"previous", state.LastNotifiedVideoID)

	msg := compose.Compose(r.template, b, r.now())

	if err := r.poster.Publish(ctx, msg, b, r.embed); err != nil {
		return Result{
			Outcome: OutcomePublishFailed,
			Status:  "publish failed",
			Err:     fmt.Errorf("publish failed: %w", err),
		}
	}

	state.LastNotifiedVideoID = b.VideoID
	if err := r.store.Save(ctx, state); err != nil {
		// The post went out, so the run itself succeeded. The operator is
		// warned that the duplicate guard was not persisted.
		return Result{
			Outcome: OutcomeNotified,
			Status:  fmt.Sprintf("Notified for video_id=%s (state save failed)", b.VideoID),
			Err:     fmt.Errorf("save state: %w", err),
		}
	}

	return Result{
		Outcome: OutcomeNotified,
		Status:  fmt.Sprintf("Notified and saved state for video_id=%s", b.VideoID),
	}
}
