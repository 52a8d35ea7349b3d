package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "patchdesk/pkg/domain-errors"
)

// Store persists timeline events. Append must be durable before returning;
// List returns events in non-decreasing timestamp order, ties broken by
// insertion order.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Publisher mirrors events to an external stream. Mirroring is best-effort
// and never blocks or fails the synchronous append.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Timeline captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Timeline struct {
	store  Store
	mirror Publisher
	logger *slog.Logger
}

// Option configures the Timeline.
type Option func(*Timeline)

// WithMirror attaches a best-effort stream publisher.
func WithMirror(p Publisher) Option {
	return func(t *Timeline) { t.mirror = p }
}

func NewTimeline(store Store, logger *slog.Logger, opts ...Option) *Timeline {
	t := &Timeline{store: store, logger: logger}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Emit appends an event to the timeline. The append is fail-closed: if the
// store write fails the caller must fail its operation. A configured mirror
// publisher is invoked afterwards, fire-and-forget.
func (t *Timeline) Emit(ctx context.Context, event Event) error {
	if event.EventID == "" {
		event.EventID = "evt_" + uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := t.store.Append(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit append failed")
	}
	if t.mirror != nil {
		if err := t.mirror.Publish(ctx, event); err != nil {
			t.logger.WarnContext(ctx, "audit mirror publish failed",
				"event_id", event.EventID,
				"error", err,
			)
		}
	}
	return nil
}

// List returns the full timeline in chronological order.
func (t *Timeline) List(ctx context.Context) ([]Event, error) {
	events, err := t.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit list failed")
	}
	return events, nil
}
