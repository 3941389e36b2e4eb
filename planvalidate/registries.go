package planvalidate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lightning-os/runtime/plan"
)

// validateExternalEvents checks each declared event against the external
// event registry (validator #3): a name known to the registry must carry
// the registry's kind; an unknown name must carry no kind/schedule at all.
func validateExternalEvents(p *plan.Plan, events *plan.EventRegistry) ValidationResult {
	for _, e := range p.Events {
		def, known := events.Get(e.Name)
		if known {
			if e.Kind != string(def.Kind) {
				return fail("external_events", fmt.Sprintf(
					"event %q is registered with kind %q but plan declares kind %q", e.Name, def.Kind, e.Kind))
			}
			continue
		}
		if e.Kind != "" || e.Schedule != "" {
			return fail("external_events", fmt.Sprintf(
				"event %q is not in the external event registry and must not declare kind/schedule", e.Name))
		}
	}
	return ValidationResult{Name: "external_events", Success: true, Severity: SeverityError, Message: "declared events match the event registry"}
}

// validateTools checks every step's action against the tool registry
// (validator #4): the action must name an enabled tool, and every tool
// input must be supplied by the step's args. Extra args are allowed.
func validateTools(p *plan.Plan, tools *plan.ToolRegistry) ValidationResult {
	for _, s := range p.Steps {
		tool, ok := tools.GetByName(s.Action)
		if !ok || !tool.Enabled {
			return fail("tools", fmt.Sprintf("step %q: action %q is not an enabled registered tool", s.Name, s.Action))
		}
		var missing []string
		for input := range tool.Inputs {
			if _, supplied := s.Args[input]; !supplied {
				missing = append(missing, input)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fail("tools", fmt.Sprintf(
				"step %q: action %q missing required args: %s", s.Name, s.Action, strings.Join(missing, ", ")))
		}
	}
	return ValidationResult{Name: "tools", Success: true, Severity: SeverityError, Message: "every step's action and args are satisfied by the tool registry"}
}
