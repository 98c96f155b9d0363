package reviews

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventCodeRequested ActivityEventType = "auth.code.requested"
	ActivityEventCodeRedeemed  ActivityEventType = "auth.code.redeemed"
	ActivityEventCodeRejected  ActivityEventType = "auth.code.rejected"
	ActivityEventTokenRefresh  ActivityEventType = "auth.token.refreshed"
	ActivityEventUserCreated   ActivityEventType = "user.created"
	ActivityEventUserUpdated   ActivityEventType = "user.updated"
	ActivityEventUserDeleted   ActivityEventType = "user.deleted"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	ActorID    string
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity is best effort, failures are logged
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		ResolveLogger(logger).Warn("activity sink failed", "event", event.EventType, "error", err)
	}
}
