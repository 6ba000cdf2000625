// Package activitymap flattens inventory activity events into a transport
// agnostic record for audit logs and downstream consumers.
package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-inventory"
)

const (
	// MetadataKeyActorType stores the actor type derived from ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyFromStatus stores the approval status before a transition.
	MetadataKeyFromStatus = "from_status"
	// MetadataKeyToStatus stores the approval status after a transition.
	MetadataKeyToStatus = "to_status"
	// MetadataKeyWarehouseID stores the warehouse the event happened in.
	MetadataKeyWarehouseID = "warehouse_id"
)

const (
	ObjectUser      = "user"
	ObjectProduct   = "product"
	ObjectWarehouse = "warehouse"

	defaultActorID = "system"
)

// Normalized is the flat shape of an activity event.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	actorFallback string
	now           func() time.Time
}

// Normalize converts an inventory.ActivityEvent into a Normalized record.
// The channel defaults to the first segment of the event type, so
// "inventory.stock.changed" lands on "inventory".
func Normalize(event inventory.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{
		actorFallback: defaultActorID,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(event.Actor.ID),
		strings.TrimSpace(event.UserID),
		options.actorFallback,
	)

	objectType, objectID := resolveObject(event)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now().UTC()
	}

	channel := options.channel
	if channel == "" {
		channel, _, _ = strings.Cut(string(event.EventType), ".")
	}

	return Normalized{
		ActorID:    actorID,
		ActorEmail: strings.TrimSpace(event.Actor.Email),
		Verb:       string(event.EventType),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithChannel forces the channel of every record.
func WithChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithActorFallback sets the actor id used when the event has none.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock sets the clock used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if now != nil {
			opts.now = now
		}
	}
}

// LoggerSink writes every event as a normalized record.
func LoggerSink(logger inventory.Logger, opts ...Option) inventory.ActivitySink {
	return inventory.ActivitySinkFunc(func(_ context.Context, event inventory.ActivityEvent) error {
		n := Normalize(event, opts...)
		logger.Info("activity",
			"verb", n.Verb,
			"channel", n.Channel,
			"actor_id", n.ActorID,
			"actor_email", n.ActorEmail,
			"object_type", n.ObjectType,
			"object_id", n.ObjectID,
			"metadata", n.Metadata,
			"occurred_at", n.OccurredAt,
		)
		return nil
	})
}

// resolveObject picks the most specific object the event talks about: a
// product, then a user, then the warehouse.
func resolveObject(event inventory.ActivityEvent) (string, string) {
	if id, ok := event.Metadata["product_id"].(string); ok && strings.TrimSpace(id) != "" {
		return ObjectProduct, strings.TrimSpace(id)
	}
	if id := strings.TrimSpace(event.UserID); id != "" {
		return ObjectUser, id
	}
	if id := strings.TrimSpace(event.WarehouseID); id != "" {
		return ObjectWarehouse, id
	}
	return "", ""
}

func normalizeMetadata(event inventory.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)
	set := func(key, value string, overwrite bool) {
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; exists && !overwrite {
			return
		}
		metadata[key] = value
	}

	set(MetadataKeyActorType, strings.TrimSpace(event.Actor.Type), false)
	set(MetadataKeyWarehouseID, strings.TrimSpace(event.WarehouseID), false)
	set(MetadataKeyFromStatus, string(event.FromStatus), true)
	set(MetadataKeyToStatus, string(event.ToStatus), true)

	return metadata
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
