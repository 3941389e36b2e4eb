package plan

import (
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/lightning-os/runtime/internal/logging"
)

// EventCategory classifies a registered event.
type EventCategory string

const (
	CategoryInput    EventCategory = "INPUT"
	CategoryInternal EventCategory = "INTERNAL"
	CategoryOutput   EventCategory = "OUTPUT"
	CategoryExternal EventCategory = "EXTERNAL"
)

// EventKind is the real trigger source backing an external event.
type EventKind string

const (
	KindTimeCron     EventKind = "time.cron"
	KindTimeInterval EventKind = "time.interval"
	KindWebhook      EventKind = "webhook"
	KindManual       EventKind = "manual"
)

// EventDefinition is one entry of the event registry.
type EventDefinition struct {
	Name         string
	Category     EventCategory
	Kind         EventKind
	Schedule     string
	RequiredData []string
}

// External reports whether this definition names a real trigger source,
// i.e. has a Kind (and is therefore category EXTERNAL).
func (d EventDefinition) External() bool {
	return d.Kind != ""
}

// EventRegistry is the process-wide {name -> EventDefinition} table.
type EventRegistry struct {
	mu     sync.RWMutex
	byName map[string]EventDefinition
	logger logging.Logger
}

func newEmptyEventRegistry(logger logging.Logger) *EventRegistry {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &EventRegistry{byName: make(map[string]EventDefinition), logger: logger}
}

// NewEventRegistry builds a registry seeded with one representative entry
// per external trigger kind, so list-events and the planner prompt always
// have a non-empty external-event list to show.
func NewEventRegistry(logger logging.Logger) *EventRegistry {
	r := newEmptyEventRegistry(logger)
	defaults := []EventDefinition{
		{Name: "event.schedule.cron_tick", Category: CategoryExternal, Kind: KindTimeCron, Schedule: "*/5 * * * *"},
		{Name: "event.schedule.interval_tick", Category: CategoryExternal, Kind: KindTimeInterval, Schedule: "60s"},
		{Name: "event.webhook.received", Category: CategoryExternal, Kind: KindWebhook},
		{Name: "event.manual.trigger", Category: CategoryExternal, Kind: KindManual},
	}
	for _, d := range defaults {
		if err := r.Register(d); err != nil {
			r.logger.Error("event registry: default registration failed", "name", d.Name, "error", err)
		}
	}
	return r
}

// Register validates and adds an event definition. A time.cron kind's
// schedule is parsed with cron.ParseStandard at registration time so a
// malformed pattern is rejected immediately rather than at dispatch time.
func (r *EventRegistry) Register(d EventDefinition) error {
	if !strings.HasPrefix(d.Name, "event.") {
		return fmt.Errorf("event registry: name %q must start with %q", d.Name, "event.")
	}
	if d.Kind == KindTimeCron && d.Schedule != "" {
		if _, err := cron.ParseStandard(d.Schedule); err != nil {
			return fmt.Errorf("event registry: invalid cron schedule %q: %w", d.Schedule, err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[d.Name] = d
	return nil
}

// Get looks up a definition by name.
func (r *EventRegistry) Get(name string) (EventDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// GetExternalEvents returns only entries with a Kind present.
func (r *EventRegistry) GetExternalEvents() []EventDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []EventDefinition
	for _, d := range r.byName {
		if d.External() {
			out = append(out, d)
		}
	}
	return out
}
