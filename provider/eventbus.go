package provider

import (
	"context"

	"github.com/lightning-os/runtime/event"
)

// Handler is invoked once per matched event per subscription.
type Handler func(ctx context.Context, e *event.Event) error

// Filter is a dotted key-path -> expected value equality filter.
// Recognized key prefixes are "data.", "metadata.", and bare attribute
// names; all conditions must hold.
type Filter map[string]any

// DeadLetterRecord is a retained, reprocessable failure record.
type DeadLetterRecord struct {
	Event           *event.Event
	Topic           string
	SubscriptionID  string
	FailureReason   string
	AttemptCount    int
}

// EventBus is the topic-addressed pub/sub capability.
type EventBus interface {
	Publish(ctx context.Context, e *event.Event, topic string) error
	PublishBatch(ctx context.Context, events []*event.Event, topic string) error
	Subscribe(eventType string, h Handler, topic string, filter Filter) (string, error)
	Unsubscribe(subID string) error

	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	CreateTopic(topic string) error
	DeleteTopic(topic string) error
	TopicExists(topic string) bool

	GetDeadLetterEvents(topic string, max int) ([]*DeadLetterRecord, error)
	ReprocessDeadLetterEvent(ctx context.Context, id, topic string) error

	// HasSubscribers defaults to true when the event type is unrecognized,
	// connectivity.
	HasSubscribers(eventType, topic string) bool

	// GetOrphanedEvents/DrainOrphanedEvents default to no-ops ([]/0); a
	// provider may override them to surface events a topic accepted but can
	// no longer route.
	GetOrphanedEvents() []*event.Event
	DrainOrphanedEvents() int
}
