package planvalidate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/plan"
)

func twoDisjointChainsPlan() *plan.Plan {
	return &plan.Plan{
		PlanName:  "disjoint",
		GraphType: plan.GraphReactive,
		Events: []plan.Event{
			{Name: "event.chain_a.start", Kind: "manual"},
			{Name: "event.chain_b.start", Kind: "manual"},
		},
		Steps: []plan.Step{
			{Name: "a", On: []string{"event.chain_a.start"}, Action: "noop", Args: map[string]any{}, Emits: []string{"event.chain_a.done"}},
			{Name: "b", On: []string{"event.chain_b.start"}, Action: "noop", Args: map[string]any{}, Emits: []string{"event.chain_b.done"}},
		},
	}
}

func noopRegistries() (*plan.ToolRegistry, *plan.EventRegistry) {
	tools := plan.NewToolRegistry(nil)
	tools.Register(plan.ToolMetadata{
		ID: "noop", Name: "noop", Enabled: true, AccessScopes: map[plan.AccessScope]struct{}{plan.ScopePlanner: {}},
	})
	events := plan.NewEventRegistry(nil)
	return tools, events
}

func TestValidatePetriNetCatchesDisjointChains(t *testing.T) {
	_, events := noopRegistries()

	results := validatePetriNet(twoDisjointChainsPlan(), events)

	var petri *ValidationResult
	for i := range results {
		if results[i].Name == "petri_net" {
			petri = &results[i]
		}
	}
	require.NotNil(t, petri)
	require.False(t, petri.Success)
	require.Contains(t, petri.Message, "disconnected")
}

func TestValidatePetriNetAcceptsSingleConnectedChain(t *testing.T) {
	_, events := noopRegistries()

	p := &plan.Plan{
		PlanName:  "connected",
		GraphType: plan.GraphReactive,
		Events: []plan.Event{
			{Name: "event.start", Kind: "manual"},
		},
		Steps: []plan.Step{
			{Name: "a", On: []string{"event.start"}, Action: "noop", Args: map[string]any{}, Emits: []string{"event.mid"}},
			{Name: "b", On: []string{"event.mid"}, Action: "noop", Args: map[string]any{}, Emits: []string{"event.done"}},
		},
	}

	results := validatePetriNet(p, events)

	var petri *ValidationResult
	for i := range results {
		if results[i].Name == "petri_net" {
			petri = &results[i]
		}
	}
	require.NotNil(t, petri)
	require.True(t, petri.Success, "%s", petri.Message)
}

func TestDisjointChainsFailFullValidation(t *testing.T) {
	tools, events := noopRegistries()
	v, err := NewValidator(tools, events)
	require.NoError(t, err)

	_, err = v.Validate(twoDisjointChainsPlan())
	require.Error(t, err)

	var pve *PlanValidationError
	require.ErrorAs(t, err, &pve)
	require.Contains(t, pve.Error(), "disconnected")
}
