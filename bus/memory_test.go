package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/provider"
)

func newTestBus(t *testing.T) *Memory {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OperationTimeout = 2 * time.Second
	cfg.RetryBackoffSeconds = 0.01
	b := New(cfg, nil, nil)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() {
		_ = b.Stop(context.Background())
	})
	return b
}

func TestWildcardSubscription(t *testing.T) {
	b := newTestBus(t)
	var mu sync.Mutex
	var got []string

	_, err := b.Subscribe("order.*", func(ctx context.Context, e *event.Event) error {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
		return nil
	}, "orders", nil)
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), event.New("order.created", nil), "orders"))
	require.NoError(t, b.Publish(context.Background(), event.New("order.shipped", nil), "orders"))
	require.NoError(t, b.Publish(context.Background(), event.New("invoice.created", nil), "orders"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestTopicIsolation(t *testing.T) {
	b := newTestBus(t)
	called := make(chan struct{}, 1)

	_, err := b.Subscribe("ping", func(ctx context.Context, e *event.Event) error {
		called <- struct{}{}
		return nil
	}, "topic-a", nil)
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), event.New("ping", nil), "topic-b"))

	select {
	case <-called:
		t.Fatal("handler on topic-a should not fire for a publish on topic-b")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRetryThenDeadLetter(t *testing.T) {
	b := newTestBus(t)
	var attempts int32
	var mu sync.Mutex

	_, err := b.Subscribe("task.run", func(ctx context.Context, e *event.Event) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("boom")
	}, "tasks", nil)
	require.NoError(t, err)

	e := event.New("task.run", nil)
	require.NoError(t, b.Publish(context.Background(), e, "tasks"))

	require.Eventually(t, func() bool {
		recs, _ := b.GetDeadLetterEvents("tasks", 0)
		return len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.EqualValues(t, b.cfg.RetryMaxAttempts+1, attempts)
}

func TestRetryClearsOnEventualSuccess(t *testing.T) {
	b := newTestBus(t)
	var attempts int32
	var mu sync.Mutex

	_, err := b.Subscribe("task.flaky", func(ctx context.Context, e *event.Event) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient")
		}
		return nil
	}, "tasks", nil)
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), event.New("task.flaky", nil), "tasks"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	recs, _ := b.GetDeadLetterEvents("tasks", 0)
	require.Empty(t, recs)
}

func TestExpiredEventIsDropped(t *testing.T) {
	b := newTestBus(t)
	fired := make(chan struct{}, 1)

	_, err := b.Subscribe("stale.event", func(ctx context.Context, e *event.Event) error {
		fired <- struct{}{}
		return nil
	}, "stale", nil)
	require.NoError(t, err)

	e := event.New("stale.event", nil)
	e.Timestamp = time.Now().UTC().Add(-time.Hour)
	ttl := int64(60)
	e.TTLSeconds = &ttl

	require.NoError(t, b.Publish(context.Background(), e, "stale"))

	select {
	case <-fired:
		t.Fatal("handler should not run for an already-expired event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDeadLetterReprocessing(t *testing.T) {
	b := newTestBus(t)
	var succeed bool
	var mu sync.Mutex

	_, err := b.Subscribe("task.once", func(ctx context.Context, e *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		if succeed {
			return nil
		}
		return errors.New("fail until reprocessed")
	}, "tasks", nil)
	require.NoError(t, err)

	e := event.New("task.once", nil)
	require.NoError(t, b.Publish(context.Background(), e, "tasks"))

	require.Eventually(t, func() bool {
		recs, _ := b.GetDeadLetterEvents("tasks", 0)
		return len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	succeed = true
	mu.Unlock()

	recs, _ := b.GetDeadLetterEvents("tasks", 0)
	require.NoError(t, b.ReprocessDeadLetterEvent(context.Background(), recs[0].Event.ID, "tasks"))

	require.Eventually(t, func() bool {
		recs, _ := b.GetDeadLetterEvents("tasks", 0)
		return len(recs) == 0
	}, time.Second, 10*time.Millisecond)

	_, err = b.GetDeadLetterEvents("tasks", 0)
	require.NoError(t, err)
}

func TestReprocessUnknownDeadLetterFails(t *testing.T) {
	b := newTestBus(t)
	err := b.ReprocessDeadLetterEvent(context.Background(), "does-not-exist", "tasks")
	require.ErrorIs(t, err, ErrDeadLetterNotFound)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := newTestBus(t)
	id, err := b.Subscribe("x.y", func(ctx context.Context, e *event.Event) error { return nil }, "t", nil)
	require.NoError(t, err)
	require.NoError(t, b.Unsubscribe(id))
	require.NoError(t, b.Unsubscribe(id))
	require.NoError(t, b.Unsubscribe("never-registered"))
}

func TestFilterExpression(t *testing.T) {
	b := newTestBus(t)
	matched := make(chan string, 4)

	_, err := b.Subscribe("order.created", func(ctx context.Context, e *event.Event) error {
		matched <- e.ID
		return nil
	}, "orders", provider.Filter{"data.region": "eu"})
	require.NoError(t, err)

	euEvent := event.New("order.created", map[string]any{"region": "eu"})
	usEvent := event.New("order.created", map[string]any{"region": "us"})
	require.NoError(t, b.Publish(context.Background(), euEvent, "orders"))
	require.NoError(t, b.Publish(context.Background(), usEvent, "orders"))

	require.Eventually(t, func() bool {
		select {
		case id := <-matched:
			return id == euEvent.ID
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	select {
	case id := <-matched:
		t.Fatalf("unexpected second match: %s", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartStopIsIdempotentAndPreservesQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryBackoffSeconds = 0.01
	b := New(cfg, nil, nil)
	ctx := context.Background()
	require.NoError(t, b.Start(ctx))
	require.NoError(t, b.Start(ctx))

	delivered := make(chan struct{}, 1)
	_, err := b.Subscribe("held", func(ctx context.Context, e *event.Event) error {
		delivered <- struct{}{}
		return nil
	}, "held-topic", nil)
	require.NoError(t, err)

	require.NoError(t, b.Stop(ctx))
	require.NoError(t, b.Stop(ctx))

	require.NoError(t, b.Publish(ctx, event.New("held", nil), "held-topic"))

	select {
	case <-delivered:
		t.Fatal("handler should not run while bus is stopped")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, b.Start(ctx))
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("queued event should be delivered once restarted")
	}
}
