// Package activitymap flattens reviews activity events into a transport
// agnostic record for audit logs and downstream consumers.
package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-reviews"
)

const (
	// MetadataKeySource stores where a user mutation came from, admin or self.
	MetadataKeySource = "source"
)

const (
	defaultObjectType = "user"
	defaultActorID    = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	objectType       string
	actorFallback    string
	objectIDResolver func(reviews.ActivityEvent) string
}

// Normalize converts a reviews.ActivityEvent into the normalized shape.
// The channel defaults to the event type prefix, "auth" for
// auth.code.redeemed. An anonymous actor falls back to the user id, then
// to "system".
func Normalize(event reviews.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		knownID(event.ActorID),
		knownID(event.UserID),
		strings.TrimSpace(options.actorFallback),
	)

	channel := strings.TrimSpace(options.channel)
	if channel == "" {
		channel = channelOf(event.EventType)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: strings.TrimSpace(options.objectType),
		ObjectID:   resolveObjectID(event, options.objectIDResolver),
		Channel:    channel,
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: occurredAt,
	}
}

// WithChannel forces the channel instead of deriving it from the event type.
func WithChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides object-id extraction from ActivityEvent.
func WithObjectIDResolver(resolver func(reviews.ActivityEvent) string) Option {
	return func(opts *normalizeOptions) {
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the final actor-id fallback when actor/user ids are empty.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// Sink adapts a function consuming normalized records to reviews.ActivitySink.
func Sink(fn func(Normalized) error, opts ...Option) reviews.ActivitySink {
	return reviews.ActivitySinkFunc(func(_ context.Context, event reviews.ActivityEvent) error {
		if fn == nil {
			return nil
		}
		return fn(Normalize(event, opts...))
	})
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func channelOf(eventType reviews.ActivityEventType) string {
	verb := string(eventType)
	if i := strings.Index(verb, "."); i > 0 {
		return verb[:i]
	}
	return verb
}

func resolveObjectID(event reviews.ActivityEvent, resolver func(reviews.ActivityEvent) string) string {
	if resolver != nil {
		return strings.TrimSpace(resolver(event))
	}
	return knownID(event.UserID)
}

// knownID drops blanks and the nil uuid carried by anonymous actors
func knownID(id string) string {
	id = strings.TrimSpace(id)
	if id == uuid.Nil.String() {
		return ""
	}
	return id
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
