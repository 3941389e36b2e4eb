package instruction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lightning-os/runtime/plan"
)

// buildPlanInstruction renders the deterministic planner prompt described
// a purpose line, the optional description, a prose trigger
// rendering, a prose action rendering, and a reactive-workflow hint. Same
// input always produces the same prompt.
func buildPlanInstruction(r Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a plan that implements the instruction %q.\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", r.Description)
	}

	b.WriteString(renderTrigger(r.Trigger))
	b.WriteString(renderAction(r.Action))

	b.WriteString("This instruction reacts to an event as it occurs; the generated plan should be a reactive workflow (graph_type: \"reactive\").\n")

	return b.String()
}

// buildReviseInstruction renders the prompt for revising a standing plan
// from a user critique: the existing plan as JSON, then the critique as a
// correction request.
func buildReviseInstruction(existing *plan.Plan, critique string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Revise the plan %q below to address the following critique.\n", existing.PlanName)
	if raw, err := existing.ToJSON(); err == nil {
		fmt.Fprintf(&b, "Current plan:\n%s\n", raw)
	}
	fmt.Fprintf(&b, "Critique: %s\n", critique)
	b.WriteString("Emit a corrected plan with the same graph_type unless the critique requires otherwise.\n")

	return b.String()
}

func renderTrigger(t Trigger) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trigger: fires on event type %q.\n", t.EventType)
	if len(t.Providers) > 0 {
		providers := append([]string(nil), t.Providers...)
		sort.Strings(providers)
		fmt.Fprintf(&b, "Restricted to providers: %s.\n", strings.Join(providers, ", "))
	}
	if len(t.Conditions) > 0 {
		conditions := append([]string(nil), t.Conditions...)
		sort.Strings(conditions)
		fmt.Fprintf(&b, "Only when content matches: %s.\n", strings.Join(conditions, ", "))
	}
	return b.String()
}

func renderAction(a Action) string {
	var b strings.Builder
	switch a.Type {
	case "notify":
		fmt.Fprintf(&b, "Action: send a notification using config %s.\n", renderConfig(a.Config))
	case "run_tool":
		fmt.Fprintf(&b, "Action: invoke a tool using config %s.\n", renderConfig(a.Config))
	case "workflow":
		fmt.Fprintf(&b, "Action: run a sub-workflow using config %s.\n", renderConfig(a.Config))
	default:
		fmt.Fprintf(&b, "Action: perform %q using config %s.\n", a.Type, renderConfig(a.Config))
	}
	return b.String()
}

// renderConfig prints a map deterministically by sorting its keys; map
// iteration order is otherwise randomized per-process in Go.
func renderConfig(cfg map[string]any) string {
	if len(cfg) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, cfg[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
