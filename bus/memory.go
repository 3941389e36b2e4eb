// Package bus implements the reference local EventBus: topic queues, a
// wildcard-aware subscription table, filter evaluation, retry with
// exponential backoff, and dead-letter handling.
package bus

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/internal/logging"
	"github.com/lightning-os/runtime/provider"
)

// Config tunes the bus; field names mirror the config package's options that
// feed it.
type Config struct {
	MaxConcurrentOperations int
	OperationTimeout        time.Duration
	RetryMaxAttempts        int
	RetryBackoffSeconds     float64
	QueueSize               int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentOperations: 100,
		OperationTimeout:        300 * time.Second,
		RetryMaxAttempts:        3,
		RetryBackoffSeconds:     1,
		QueueSize:               1024,
	}
}

const defaultTopic = "default"

type subscription struct {
	id      string
	topic   string
	pattern compiledPattern
	handler provider.Handler
	filter  provider.Filter
}

type topicState struct {
	name  string
	queue chan *event.Event
	done  chan struct{}
}

// Observer receives a CloudEvents-wrapped lifecycle notification for bus
// milestones (message published/delivered/failed/dead-lettered), mirroring
// the framework's observer_cloudevents.go pattern. It is optional.
type Observer func(ctx context.Context, ce cloudevents.Event)

// Memory is the in-process reference EventBus implementation.
type Memory struct {
	cfg      Config
	logger   logging.Logger
	observer Observer
	source   string

	mu           sync.RWMutex
	running      bool
	topics       map[string]*topicState
	subsByID     map[string]*subscription
	literalIndex map[string][]*subscription // literal pattern -> subs
	wildcard     []*subscription

	wg  sync.WaitGroup
	sem chan struct{}

	dlqMu sync.Mutex
	dlq   []*provider.DeadLetterRecord

	orphanMu sync.Mutex
	orphans  []*event.Event
}

// New builds a Memory bus. logger and observer may be nil.
func New(cfg Config, logger logging.Logger, observer Observer) *Memory {
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg.MaxConcurrentOperations <= 0 {
		cfg.MaxConcurrentOperations = DefaultConfig().MaxConcurrentOperations
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Memory{
		cfg:          cfg,
		logger:       logger,
		observer:     observer,
		source:       "lightning-runtime/bus",
		topics:       make(map[string]*topicState),
		subsByID:     make(map[string]*subscription),
		literalIndex: make(map[string][]*subscription),
		sem:          make(chan struct{}, cfg.MaxConcurrentOperations),
	}
}

func (b *Memory) createTopicLocked(name string) *topicState {
	if ts, ok := b.topics[name]; ok {
		return ts
	}
	ts := &topicState{name: name, queue: make(chan *event.Event, b.cfg.QueueSize)}
	b.topics[name] = ts
	if b.running {
		b.startProcessorLocked(ts)
	}
	return ts
}

func (b *Memory) startProcessorLocked(ts *topicState) {
	done := make(chan struct{})
	ts.done = done
	b.wg.Add(1)
	go b.runProcessor(ts, done)
}

// Start is idempotent: it launches one processor goroutine per existing
// topic and transitions the bus to running.
func (b *Memory) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	b.running = true
	for _, ts := range b.topics {
		b.startProcessorLocked(ts)
	}
	return nil
}

// Stop signals every processor, awaits their termination, and leaves queue
// contents intact for a subsequent Start.
func (b *Memory) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	for _, ts := range b.topics {
		close(ts.done)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Memory) runProcessor(ts *topicState, done <-chan struct{}) {
	defer b.wg.Done()
	for {
		select {
		case <-done:
			return
		case e, ok := <-ts.queue:
			if !ok {
				return
			}
			b.dispatch(ts.name, e)
		}
	}
}

// CreateTopic explicitly creates a topic (lazy creation also happens on
// first Publish/Subscribe).
func (b *Memory) CreateTopic(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createTopicLocked(name)
	return nil
}

func (b *Memory) DeleteTopic(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ts, ok := b.topics[name]
	if !ok {
		return nil
	}
	if b.running && ts.done != nil {
		close(ts.done)
	}
	delete(b.topics, name)
	return nil
}

func (b *Memory) TopicExists(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.topics[name]
	return ok
}

// Publish assigns the default topic when none is given, creates the topic
// lazily, and enqueues the event.
func (b *Memory) Publish(ctx context.Context, e *event.Event, topic string) error {
	if topic == "" {
		topic = defaultTopic
	}
	b.mu.Lock()
	ts := b.createTopicLocked(topic)
	b.mu.Unlock()

	select {
	case ts.queue <- e:
		b.emit(ctx, "com.lightning.bus.message.published", e, topic, nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishBatch enqueues events in submission order to the same topic; no
// cross-topic ordering is promised.
func (b *Memory) PublishBatch(ctx context.Context, events []*event.Event, topic string) error {
	for _, e := range events {
		if err := b.Publish(ctx, e, topic); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a pattern + handler + optional filter under a topic
// and returns a fresh subscription id.
func (b *Memory) Subscribe(eventType string, h provider.Handler, topic string, filter provider.Filter) (string, error) {
	if topic == "" {
		topic = defaultTopic
	}
	sub := &subscription{
		id:      uuid.NewString(),
		topic:   topic,
		pattern: compilePattern(eventType),
		handler: h,
		filter:  filter,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subsByID[sub.id] = sub
	if sub.pattern.re == nil {
		b.literalIndex[sub.pattern.literal] = append(b.literalIndex[sub.pattern.literal], sub)
	} else {
		b.wildcard = append(b.wildcard, sub)
	}
	b.createTopicLocked(topic)
	return sub.id, nil
}

// Unsubscribe is idempotent: removing an unknown id is a no-op.
func (b *Memory) Unsubscribe(subID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subsByID[subID]
	if !ok {
		return nil
	}
	delete(b.subsByID, subID)
	if sub.pattern.re == nil {
		b.literalIndex[sub.pattern.literal] = removeSub(b.literalIndex[sub.pattern.literal], subID)
	} else {
		b.wildcard = removeSub(b.wildcard, subID)
	}
	return nil
}

func removeSub(list []*subscription, id string) []*subscription {
	out := list[:0]
	for _, s := range list {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// matchingSubscriptions takes a consistent snapshot of the subscription
// table for one (topic, eventType) pair.
func (b *Memory) matchingSubscriptions(topic, eventType string) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*subscription
	for _, s := range b.literalIndex[eventType] {
		if s.topic == topic {
			out = append(out, s)
		}
	}
	for _, s := range b.wildcard {
		if s.topic == topic && s.pattern.matches(eventType) {
			out = append(out, s)
		}
	}
	return out
}

func (b *Memory) dispatch(topic string, e *event.Event) {
	if e.Expired(time.Now().UTC()) {
		b.logger.Debug("dropping expired event", "id", e.ID, "type", e.Type)
		return
	}
	matches := b.matchingSubscriptions(topic, e.Type)
	for _, sub := range matches {
		if !matchesFilter(sub.filter, e) {
			continue
		}
		b.invokeAsync(topic, e, sub, 1)
	}
}

func (b *Memory) invokeAsync(topic string, e *event.Event, sub *subscription, attempt int) {
	go func() {
		b.sem <- struct{}{}
		defer func() { <-b.sem }()
		b.attempt(topic, e, sub, attempt)
	}()
}

func (b *Memory) attempt(topic string, e *event.Event, sub *subscription, attempt int) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.OperationTimeout)
	defer cancel()

	err := b.callHandler(ctx, sub, e)
	if err == nil {
		b.emit(ctx, "com.lightning.bus.message.delivered", e, topic, map[string]any{"subscription_id": sub.id, "attempt": attempt})
		return
	}

	if attempt >= b.cfg.RetryMaxAttempts+1 {
		b.deadLetter(topic, e, sub, err, attempt)
		b.emit(ctx, "com.lightning.bus.message.dead_lettered", e, topic, map[string]any{"subscription_id": sub.id, "attempts": attempt, "reason": err.Error()})
		return
	}

	b.emit(ctx, "com.lightning.bus.message.failed", e, topic, map[string]any{"subscription_id": sub.id, "attempt": attempt, "reason": err.Error()})
	backoff := time.Duration(b.cfg.RetryBackoffSeconds*math.Pow(2, float64(attempt-1))*1000) * time.Millisecond
	time.AfterFunc(backoff, func() {
		b.invokeAsync(topic, e, sub, attempt+1)
	})
}

func (b *Memory) callHandler(ctx context.Context, sub *subscription, e *event.Event) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- sub.handler(ctx, e)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Memory) deadLetter(topic string, e *event.Event, sub *subscription, reason error, attempts int) {
	b.dlqMu.Lock()
	defer b.dlqMu.Unlock()
	b.dlq = append(b.dlq, &provider.DeadLetterRecord{
		Event:          e,
		Topic:          topic,
		SubscriptionID: sub.id,
		FailureReason:  reason.Error(),
		AttemptCount:   attempts,
	})
	b.logger.Error("event moved to dead-letter queue", "id", e.ID, "topic", topic, "subscription_id", sub.id, "reason", reason.Error())
}

// GetDeadLetterEvents returns retained dead-letter events, optionally
// filtered by originating topic.
func (b *Memory) GetDeadLetterEvents(topic string, max int) ([]*provider.DeadLetterRecord, error) {
	b.dlqMu.Lock()
	defer b.dlqMu.Unlock()
	var out []*provider.DeadLetterRecord
	for _, r := range b.dlq {
		if topic != "" && r.Topic != topic {
			continue
		}
		out = append(out, r)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

// ReprocessDeadLetterEvent republishes the event to its originating topic
// and atomically removes the DLQ record; an unknown id fails with
// ErrDeadLetterNotFound.
func (b *Memory) ReprocessDeadLetterEvent(ctx context.Context, id, topic string) error {
	b.dlqMu.Lock()
	idx := -1
	for i, r := range b.dlq {
		if r.Event.ID == id && (topic == "" || r.Topic == topic) {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.dlqMu.Unlock()
		return ErrDeadLetterNotFound
	}
	rec := b.dlq[idx]
	b.dlq = append(b.dlq[:idx], b.dlq[idx+1:]...)
	b.dlqMu.Unlock()

	return b.Publish(ctx, rec.Event, rec.Topic)
}

// HasSubscribers mirrors the reference provider's conservative default: true
// when the event type is not one the bus specifically knows has none.
func (b *Memory) HasSubscribers(eventType, topic string) bool {
	if topic == "" {
		topic = defaultTopic
	}
	if len(b.matchingSubscriptions(topic, eventType)) > 0 {
		return true
	}
	return false
}

func (b *Memory) GetOrphanedEvents() []*event.Event {
	b.orphanMu.Lock()
	defer b.orphanMu.Unlock()
	out := make([]*event.Event, len(b.orphans))
	copy(out, b.orphans)
	return out
}

func (b *Memory) DrainOrphanedEvents() int {
	b.orphanMu.Lock()
	defer b.orphanMu.Unlock()
	n := len(b.orphans)
	b.orphans = nil
	return n
}

func (b *Memory) emit(ctx context.Context, ceType string, e *event.Event, topic string, extra map[string]any) {
	if b.observer == nil {
		return
	}
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetType(ceType)
	ce.SetSource(b.source)
	ce.SetTime(time.Now().UTC())
	_ = ce.SetData(cloudevents.ApplicationJSON, map[string]any{
		"event_id": e.ID,
		"topic":    topic,
		"extra":    extra,
	})
	b.observer(ctx, ce)
}

var _ provider.EventBus = (*Memory)(nil)
