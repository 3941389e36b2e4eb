package instruction

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/internal/logging"
	"github.com/lightning-os/runtime/plan"
	"github.com/lightning-os/runtime/planvalidate"
	"github.com/lightning-os/runtime/provider"
)

const (
	TopicInstructionCreated = "instruction.created"
	TopicInstructionUpdated = "instruction.updated"

	defaultMaxRetries = 4
)

// Observer receives a CloudEvents-wrapped notification each time an
// instruction finishes processing (successfully or not), mirroring the
// bus's own lifecycle-event pattern. Optional.
type Observer func(ctx context.Context, ce cloudevents.Event)

// Processor subscribes to instruction.created/instruction.updated, builds a
// planner prompt, drives the retry-with-critique loop, and persists the
// resulting plan.
type Processor struct {
	planner    Planner
	validator  *planvalidate.Validator
	tools      *plan.ToolRegistry
	events     *plan.EventRegistry
	store      plan.Store
	logger     logging.Logger
	observer   Observer
	maxRetries int

	retryBackoff time.Duration

	mu         sync.Mutex
	lastErrors map[string]string  // instruction id -> latest error
	lastSeen   map[string]Record  // instruction id -> last processed record, for the update policy
}

func NewProcessor(
	planner Planner,
	validator *planvalidate.Validator,
	tools *plan.ToolRegistry,
	events *plan.EventRegistry,
	store plan.Store,
	logger logging.Logger,
	observer Observer,
) *Processor {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Processor{
		planner:    planner,
		validator:  validator,
		tools:      tools,
		events:     events,
		store:      store,
		logger:     logger,
		observer:   observer,
		maxRetries: defaultMaxRetries,
		lastErrors: make(map[string]string),
		lastSeen:   make(map[string]Record),
	}
}

// SetRetryBackoff sets the pause between planner retry attempts, mirroring
// the original planner's sleep(seconds_between) between a failed attempt and
// its critique retry. Zero (the default) means no pause.
func (p *Processor) SetRetryBackoff(d time.Duration) {
	p.retryBackoff = d
}

// Subscribe registers the processor's two handlers on the given bus.
func (p *Processor) Subscribe(bus provider.EventBus, topic string) error {
	if _, err := bus.Subscribe(TopicInstructionCreated, p.handleCreated, topic, nil); err != nil {
		return err
	}
	if _, err := bus.Subscribe(TopicInstructionUpdated, p.handleUpdated, topic, nil); err != nil {
		return err
	}
	return nil
}

func (p *Processor) handleCreated(ctx context.Context, e *event.Event) error {
	return p.safeHandle(ctx, e, func(r Record) bool { return true })
}

func (p *Processor) handleUpdated(ctx context.Context, e *event.Event) error {
	return p.safeHandle(ctx, e, p.shouldRegenerate)
}

// safeHandle never propagates an error to the bus: the instruction
// processor catches everything from its two handlers and records it.
func (p *Processor) safeHandle(ctx context.Context, e *event.Event, shouldRun func(Record) bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("instruction processor: panic recovered", "panic", r)
			err = nil
		}
	}()

	r, decodeErr := decodeInstruction(e)
	if decodeErr != nil {
		p.logger.Error("instruction processor: cannot decode instruction payload", "error", decodeErr)
		return nil
	}

	if !shouldRun(r) {
		p.rememberSeen(r)
		return nil
	}

	if genErr := p.generate(ctx, r); genErr != nil {
		p.recordError(r.ID, genErr)
		p.notify(ctx, "com.lightning.instruction.failed", r, genErr)
	} else {
		p.notify(ctx, "com.lightning.instruction.processed", r, nil)
	}
	p.rememberSeen(r)
	return nil
}

// shouldRegenerate implements the update policy: regenerate only if
// trigger, action, or enabled:false->true changed; otherwise skip.
func (p *Processor) shouldRegenerate(r Record) bool {
	p.mu.Lock()
	prev, ok := p.lastSeen[r.ID]
	p.mu.Unlock()
	if !ok {
		return true
	}
	if !triggerEqual(prev.Trigger, r.Trigger) {
		return true
	}
	if !actionEqual(prev.Action, r.Action) {
		return true
	}
	if !prev.Enabled && r.Enabled {
		return true
	}
	return false
}

func triggerEqual(a, b Trigger) bool {
	ba, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ba) == string(bb)
}

func actionEqual(a, b Action) bool {
	ba, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ba) == string(bb)
}

func (p *Processor) rememberSeen(r Record) {
	p.mu.Lock()
	p.lastSeen[r.ID] = r
	p.mu.Unlock()
}

// generate runs the planner retry-with-critique loop and persists a
// successful plan.
func (p *Processor) generate(ctx context.Context, r Record) error {
	prompt := buildPlanInstruction(r)
	toolsView := p.tools.GetPlannerTools("")
	externalEvents := p.events.GetExternalEvents()

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		candidate, err := p.planner.GeneratePlan(ctx, prompt, toolsView, externalEvents, "", "")
		if err != nil {
			lastErr = err
			prompt = appendCritique(prompt, err.Error())
			if waitErr := p.waitBeforeRetry(ctx, attempt); waitErr != nil {
				return waitErr
			}
			continue
		}

		if _, verr := p.validator.Validate(candidate); verr != nil {
			lastErr = verr
			prompt = appendCritique(prompt, verr.Error())
			if waitErr := p.waitBeforeRetry(ctx, attempt); waitErr != nil {
				return waitErr
			}
			continue
		}

		candidate.InstructionID = r.ID
		candidate.InstructionName = r.Name
		if _, err := p.store.Save(r.ID, candidate); err != nil {
			return fmt.Errorf("instruction %s: save plan: %w", r.ID, err)
		}
		return nil
	}

	return &PlannerError{InstructionID: r.ID, Attempts: p.maxRetries, Last: lastErr}
}

// waitBeforeRetry pauses retryBackoff before the next attempt, unless this
// was the last allowed attempt or the context is cancelled first.
func (p *Processor) waitBeforeRetry(ctx context.Context, attempt int) error {
	if p.retryBackoff <= 0 || attempt >= p.maxRetries {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.retryBackoff):
		return nil
	}
}

// Revise regenerates a plan from an existing one plus a critique, driving
// the same retry-with-critique loop as generate but starting from a
// standing plan instead of an instruction record. On success the revised
// plan is chained to its parent via the store's SaveRevision, which sets
// RevisedFrom/RevisionReason, and the new plan id is returned alongside it.
func (p *Processor) Revise(ctx context.Context, planID string, existing *plan.Plan, critique string) (string, *plan.Plan, error) {
	prompt := buildReviseInstruction(existing, critique)
	toolsView := p.tools.GetPlannerTools("")
	externalEvents := p.events.GetExternalEvents()

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		candidate, err := p.planner.GeneratePlan(ctx, prompt, toolsView, externalEvents, "", "")
		if err != nil {
			lastErr = err
			prompt = appendCritique(prompt, err.Error())
			if waitErr := p.waitBeforeRetry(ctx, attempt); waitErr != nil {
				return "", nil, waitErr
			}
			continue
		}

		if _, verr := p.validator.Validate(candidate); verr != nil {
			lastErr = verr
			prompt = appendCritique(prompt, verr.Error())
			if waitErr := p.waitBeforeRetry(ctx, attempt); waitErr != nil {
				return "", nil, waitErr
			}
			continue
		}

		newID, err := p.store.SaveRevision(planID, critique, candidate)
		if err != nil {
			return "", nil, fmt.Errorf("revise plan %s: %w", planID, err)
		}
		return newID, candidate, nil
	}

	return "", nil, &PlannerError{InstructionID: planID, Attempts: p.maxRetries, Last: lastErr}
}

// appendCritique mirrors the original planner's retry mechanics: append a
// critic turn naming the validator error, asking for a corrected plan.
func appendCritique(prompt, message string) string {
	return fmt.Sprintf("%s\nCRITIC: %s\nPlease re-emit a corrected plan.\n", prompt, message)
}

func (p *Processor) recordError(instructionID string, err error) {
	p.mu.Lock()
	p.lastErrors[instructionID] = err.Error()
	p.mu.Unlock()
}

// LastError returns the most recent error recorded for an instruction, if
// any, so operators can inspect plan-generation failures.
func (p *Processor) LastError(instructionID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg, ok := p.lastErrors[instructionID]
	return msg, ok
}

func decodeInstruction(e *event.Event) (Record, error) {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, err
	}
	if r.ID == "" {
		return Record{}, fmt.Errorf("instruction payload missing id")
	}
	return r, nil
}

func (p *Processor) notify(ctx context.Context, ceType string, r Record, err error) {
	if p.observer == nil {
		return
	}
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetType(ceType)
	ce.SetSource("lightning-runtime/instruction")
	ce.SetTime(time.Now().UTC())
	data := map[string]any{"instruction_id": r.ID, "instruction_name": r.Name}
	if err != nil {
		data["error"] = err.Error()
	}
	_ = ce.SetData(cloudevents.ApplicationJSON, data)
	p.observer(ctx, ce)
}
