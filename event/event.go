// Package event defines the typed message passed through the bus: its
// priority levels, its exact JSON wire format, and the expiry rule shared by
// every provider that handles events.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Priority orders events for providers that honor it; the bus itself does
// not reorder on priority.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Event is an immutable, typed message. Handlers never mutate the Event they
// receive; the bus treats every field as read-only after publication.
type Event struct {
	ID            string
	Type          string
	Data          map[string]any
	Metadata      map[string]any
	Priority      Priority
	Timestamp     time.Time
	CorrelationID string
	ReplyTo       string
	TTLSeconds    *int64
}

// New builds an Event with a fresh id and the current timestamp, the shape
// most producers want; id and timestamp may be overridden afterward for
// tests and replays.
func New(eventType string, data map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Metadata:  map[string]any{},
		Priority:  PriorityNormal,
		Timestamp: time.Now().UTC(),
	}
}

// Expired reports whether the event has outlived its TTL: expired
// iff now - timestamp > ttl_seconds. An event with no TTL never expires.
func (e *Event) Expired(now time.Time) bool {
	if e.TTLSeconds == nil {
		return false
	}
	return now.Sub(e.Timestamp) > time.Duration(*e.TTLSeconds)*time.Second
}

// wireEvent is the wire JSON shape: fields id, event_type,
// data, metadata, timestamp, priority, correlation_id, reply_to,
// ttl_seconds, all explicitly named.
type wireEvent struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	Data          map[string]any `json:"data"`
	Metadata      map[string]any `json:"metadata"`
	Timestamp     string         `json:"timestamp"`
	Priority      Priority       `json:"priority"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	ReplyTo       string         `json:"reply_to,omitempty"`
	TTLSeconds    *int64         `json:"ttl_seconds,omitempty"`
}

// MarshalJSON produces the stable wire format; every field is explicitly
// named accordingly.
func (e *Event) MarshalJSON() ([]byte, error) {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	priority := e.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return json.Marshal(wireEvent{
		ID:            e.ID,
		EventType:     e.Type,
		Data:          data,
		Metadata:      meta,
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339Nano),
		Priority:      priority,
		CorrelationID: e.CorrelationID,
		ReplyTo:       e.ReplyTo,
		TTLSeconds:    e.TTLSeconds,
	})
}

// UnmarshalJSON parses the wire format. Unknown fields are tolerated
// (forward-compatible); missing optional fields default to zero values.
func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, w.Timestamp)
		if err != nil {
			return err
		}
	}
	e.ID = w.ID
	e.Type = w.EventType
	e.Data = w.Data
	e.Metadata = w.Metadata
	e.Timestamp = ts.UTC()
	e.Priority = w.Priority
	if e.Priority == "" {
		e.Priority = PriorityNormal
	}
	e.CorrelationID = w.CorrelationID
	e.ReplyTo = w.ReplyTo
	e.TTLSeconds = w.TTLSeconds
	return nil
}
