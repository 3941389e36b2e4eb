package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ttl := int64(60)
	e := &Event{
		ID:            "a",
		Type:          "voice.call.started",
		Data:          map[string]any{"x": float64(1)},
		Metadata:      map[string]any{"userID": "u1"},
		Priority:      PriorityHigh,
		Timestamp:     time.Now().UTC().Truncate(time.Millisecond),
		CorrelationID: "corr-1",
		ReplyTo:       "replies",
		TTLSeconds:    &ttl,
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(raw, &got))

	require.Equal(t, e.ID, got.ID)
	require.Equal(t, e.Type, got.Type)
	require.Equal(t, e.Data, got.Data)
	require.Equal(t, e.Metadata, got.Metadata)
	require.Equal(t, e.Priority, got.Priority)
	require.True(t, e.Timestamp.Equal(got.Timestamp))
	require.Equal(t, e.CorrelationID, got.CorrelationID)
	require.Equal(t, e.ReplyTo, got.ReplyTo)
	require.Equal(t, *e.TTLSeconds, *got.TTLSeconds)
}

func TestExpired(t *testing.T) {
	ttl := int64(60)
	e := &Event{Timestamp: time.Now().UTC().Add(-120 * time.Second), TTLSeconds: &ttl}
	require.True(t, e.Expired(time.Now().UTC()))

	fresh := &Event{Timestamp: time.Now().UTC(), TTLSeconds: &ttl}
	require.False(t, fresh.Expired(time.Now().UTC()))

	noTTL := &Event{Timestamp: time.Now().UTC().Add(-1000 * time.Hour)}
	require.False(t, noTTL.Expired(time.Now().UTC()))
}

func TestDefaultPriorityOnUnmarshal(t *testing.T) {
	raw := []byte(`{"id":"a","event_type":"t","data":{},"metadata":{},"timestamp":"2024-01-01T00:00:00Z"}`)
	var got Event
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, PriorityNormal, got.Priority)
}
