package instruction

import (
	"context"
	"errors"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/bus"
	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/plan"
	"github.com/lightning-os/runtime/planvalidate"
)

type fakePlanner struct {
	failures int
	plan     *plan.Plan
	calls    int
}

func (f *fakePlanner) GeneratePlan(ctx context.Context, prompt string, tools map[string]plan.PlannerToolView, events []plan.EventDefinition, modelID, userID string) (*plan.Plan, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("planner unavailable")
	}
	return f.plan, nil
}

func newTestProcessor(t *testing.T, planner Planner) (*Processor, *plan.MemoryStore, []cloudevents.Event) {
	t.Helper()
	tools := plan.NewToolRegistry(nil)
	tools.Register(plan.ToolMetadata{
		ID: "llm.summarize", Name: "llm.summarize", Enabled: true, Type: plan.ToolLLM,
		Inputs:       map[string]string{"text": "string"},
		Produces:     []string{"event.summary_complete"},
		AccessScopes: map[plan.AccessScope]struct{}{plan.ScopePlanner: {}},
	})
	events := plan.NewEventRegistry(nil)
	require.NoError(t, events.Register(plan.EventDefinition{
		Name: "event.manual.trigger", Category: plan.CategoryExternal, Kind: plan.KindManual,
	}))
	validator, err := planvalidate.NewValidator(tools, events)
	require.NoError(t, err)
	store := plan.NewMemoryStore()

	var observed []cloudevents.Event
	observer := func(ctx context.Context, ce cloudevents.Event) {
		observed = append(observed, ce)
	}

	p := NewProcessor(planner, validator, tools, events, store, nil, observer)
	return p, store, observed
}

func validGeneratedPlan() *plan.Plan {
	return &plan.Plan{
		PlanName:  "generated",
		GraphType: plan.GraphReactive,
		Events:    []plan.Event{{Name: "event.manual.trigger", Kind: "manual"}},
		Steps: []plan.Step{
			{Name: "s", On: []string{"event.manual.trigger"}, Action: "llm.summarize", Args: map[string]any{"text": "x"}, Emits: []string{"event.summary_complete"}},
		},
	}
}

func instructionEvent(r Record) *event.Event {
	e := event.New(TopicInstructionCreated, map[string]any{
		"id": r.ID, "name": r.Name, "description": r.Description,
		"trigger": map[string]any{"event_type": r.Trigger.EventType},
		"action":  map[string]any{"type": r.Action.Type},
		"enabled": r.Enabled,
	})
	return e
}

func TestGenerateSucceedsAndPersists(t *testing.T) {
	planner := &fakePlanner{plan: validGeneratedPlan()}
	p, store, _ := newTestProcessor(t, planner)

	r := Record{ID: "i1", Name: "demo", Trigger: Trigger{EventType: "x"}, Action: Action{Type: "notify"}, Enabled: true}
	err := p.generate(context.Background(), r)
	require.NoError(t, err)

	rec, err := store.GetByInstruction("i1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "i1", rec.Plan.InstructionID)
	require.Equal(t, "demo", rec.Plan.InstructionName)
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	planner := &fakePlanner{failures: 2, plan: validGeneratedPlan()}
	p, store, _ := newTestProcessor(t, planner)

	r := Record{ID: "i1", Name: "demo", Enabled: true}
	err := p.generate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, 3, planner.calls)

	rec, _ := store.GetByInstruction("i1")
	require.NotNil(t, rec)
}

func TestGenerateFailsAfterMaxRetries(t *testing.T) {
	planner := &fakePlanner{failures: 99, plan: validGeneratedPlan()}
	p, _, _ := newTestProcessor(t, planner)

	r := Record{ID: "i1", Name: "demo", Enabled: true}
	err := p.generate(context.Background(), r)
	require.Error(t, err)

	var perr *PlannerError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, p.maxRetries, planner.calls)
}

func TestHandleCreatedNeverPropagatesErrors(t *testing.T) {
	planner := &fakePlanner{failures: 99, plan: validGeneratedPlan()}
	p, _, _ := newTestProcessor(t, planner)

	r := Record{ID: "i1", Name: "demo", Enabled: true}
	err := p.handleCreated(context.Background(), instructionEvent(r))
	require.NoError(t, err)

	msg, ok := p.LastError("i1")
	require.True(t, ok)
	require.NotEmpty(t, msg)
}

func TestUpdatePolicySkipsUnrelatedChanges(t *testing.T) {
	planner := &fakePlanner{plan: validGeneratedPlan()}
	p, store, _ := newTestProcessor(t, planner)

	r := Record{ID: "i1", Name: "demo", Trigger: Trigger{EventType: "x"}, Action: Action{Type: "notify"}, Enabled: true}
	require.NoError(t, p.handleCreated(context.Background(), instructionEvent(r)))
	require.Equal(t, 1, planner.calls)

	// Description changes only; trigger/action/enabled are unchanged.
	r.Description = "a new description"
	require.NoError(t, p.handleUpdated(context.Background(), instructionEvent(r)))
	require.Equal(t, 1, planner.calls, "update with no trigger/action/enabled change must not regenerate")

	r.Trigger.EventType = "y"
	require.NoError(t, p.handleUpdated(context.Background(), instructionEvent(r)))
	require.Equal(t, 2, planner.calls, "trigger change must regenerate")

	_, err := store.GetByInstruction("i1")
	require.NoError(t, err)
}

func TestGenerateWaitsBetweenRetries(t *testing.T) {
	planner := &fakePlanner{failures: 2, plan: validGeneratedPlan()}
	p, _, _ := newTestProcessor(t, planner)
	p.SetRetryBackoff(30 * time.Millisecond)

	r := Record{ID: "i1", Name: "demo", Enabled: true}
	start := time.Now()
	err := p.generate(context.Background(), r)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestGenerateBackoffStopsOnContextCancellation(t *testing.T) {
	planner := &fakePlanner{failures: 99, plan: validGeneratedPlan()}
	p, _, _ := newTestProcessor(t, planner)
	p.SetRetryBackoff(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	r := Record{ID: "i1", Name: "demo", Enabled: true}
	err := p.generate(ctx, r)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReviseChainsToParentAndPersists(t *testing.T) {
	revised := validGeneratedPlan()
	revised.PlanName = "revised"
	planner := &fakePlanner{plan: revised}
	p, store, _ := newTestProcessor(t, planner)

	existing := validGeneratedPlan()
	store.Seed("parent-1", "user-1", existing)

	newID, result, err := p.Revise(context.Background(), "parent-1", existing, "add retry handling")
	require.NoError(t, err)
	require.NotEmpty(t, newID)
	require.NotEqual(t, "parent-1", newID)
	require.Equal(t, "parent-1", result.RevisedFrom)
	require.Equal(t, "add retry handling", result.RevisionReason)
}

func TestSubscribeDeliversInstructionCreated(t *testing.T) {
	b := bus.New(bus.DefaultConfig(), nil, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop(context.Background())

	planner := &fakePlanner{plan: validGeneratedPlan()}
	p, store, _ := newTestProcessor(t, planner)
	require.NoError(t, p.Subscribe(b, "default"))

	r := Record{ID: "i1", Name: "demo", Enabled: true}
	require.NoError(t, b.Publish(context.Background(), instructionEvent(r), "default"))

	require.Eventually(t, func() bool {
		rec, _ := store.GetByInstruction("i1")
		return rec != nil
	}, 2*time.Second, 10*time.Millisecond)
}
