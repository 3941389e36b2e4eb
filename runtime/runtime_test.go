package runtime

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/config"
	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/instruction"
	"github.com/lightning-os/runtime/plan"
)

type fakePlanner struct {
	p *plan.Plan
}

func (f *fakePlanner) GeneratePlan(ctx context.Context, prompt string, tools map[string]plan.PlannerToolView, events []plan.EventDefinition, modelID, userID string) (*plan.Plan, error) {
	return f.p, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.StoragePath = filepath.Join(t.TempDir(), "lightning.db")
	return cfg
}

func samplePlan() *plan.Plan {
	return &plan.Plan{
		PlanName:  "generated",
		GraphType: plan.GraphReactive,
		Events:    []plan.Event{{Name: "event.manual.trigger", Kind: "manual"}},
		Steps: []plan.Step{
			{Name: "s", On: []string{"event.manual.trigger"}, Action: "noop", Args: map[string]any{}, Emits: []string{}},
		},
	}
}

func TestAssembleRequiresPlanner(t *testing.T) {
	_, err := Assemble(context.Background(), testConfig(t), Options{})
	require.Error(t, err)
}

func TestAssembleWiresEventDrivenInstructionProcessing(t *testing.T) {
	planner := &fakePlanner{p: samplePlan()}
	rt, err := Assemble(context.Background(), testConfig(t), Options{Planner: planner})
	require.NoError(t, err)
	defer rt.Shutdown(context.Background())

	rt.Tools.Register(plan.ToolMetadata{
		ID: "noop", Name: "noop", Enabled: true, Type: plan.ToolNative,
		AccessScopes: map[plan.AccessScope]struct{}{plan.ScopePlanner: {}},
	})

	e := event.New(instruction.TopicInstructionCreated, map[string]any{
		"id": "i1", "name": "demo", "enabled": true,
	})
	require.NoError(t, rt.Bus.Publish(context.Background(), e, "default"))

	require.Eventually(t, func() bool {
		rec, _ := rt.PlanStore.GetByInstruction("i1")
		return rec != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAssembleRegistersHealthTargets(t *testing.T) {
	planner := &fakePlanner{p: samplePlan()}
	rt, err := Assemble(context.Background(), testConfig(t), Options{Planner: planner})
	require.NoError(t, err)
	defer rt.Shutdown(context.Background())

	status := rt.Monitor.Status()
	require.Contains(t, status, "storage")
	require.Contains(t, status, "container_runtime")
	require.Contains(t, status, "serverless")
}

func TestShutdownStopsBus(t *testing.T) {
	planner := &fakePlanner{p: samplePlan()}
	rt, err := Assemble(context.Background(), testConfig(t), Options{Planner: planner})
	require.NoError(t, err)
	require.NoError(t, rt.Shutdown(context.Background()))
}
