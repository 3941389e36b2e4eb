package planvalidate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lightning-os/runtime/plan"
)

const schemaResourceName = "lightning-plan.json"

// planSchemaDoc is the JSON Schema a candidate plan must satisfy,
// compiled once per Validator.
const planSchemaDoc = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["plan_name", "graph_type", "events", "steps"],
	"properties": {
		"plan_name": {"type": "string", "minLength": 1},
		"graph_type": {"type": "string", "enum": ["acyclic", "reactive"]},
		"events": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"kind": {"type": "string"},
					"schedule": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		},
		"steps": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "on", "action", "args", "emits"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"on": {"type": "array", "items": {"type": "string"}},
					"action": {"type": "string", "minLength": 1},
					"args": {"type": "object"},
					"emits": {"type": "array", "items": {"type": "string"}},
					"guard": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		},
		"summary": {"type": "string"},
		"revised_from": {"type": "string"},
		"revision_reason": {"type": "string"},
		"instruction_id": {"type": "string"},
		"instruction_name": {"type": "string"}
	}
}`

func compilePlanSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(planSchemaDoc)))
	if err != nil {
		return nil, fmt.Errorf("planvalidate: unmarshal schema: %w", err)
	}
	if err := compiler.AddResource(schemaResourceName, doc); err != nil {
		return nil, fmt.Errorf("planvalidate: add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaResourceName)
	if err != nil {
		return nil, fmt.Errorf("planvalidate: compile schema: %w", err)
	}
	return schema, nil
}

// validateSchema checks p against the compiled JSON schema (validator #1).
func validateSchema(schema *jsonschema.Schema, p *plan.Plan) ValidationResult {
	raw, err := p.ToJSON()
	if err != nil {
		return ValidationResult{Name: "schema", Success: false, Severity: SeverityError, Message: err.Error()}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ValidationResult{Name: "schema", Success: false, Severity: SeverityError, Message: err.Error()}
	}
	if err := schema.Validate(v); err != nil {
		return ValidationResult{Name: "schema", Success: false, Severity: SeverityError, Message: err.Error()}
	}
	return ValidationResult{Name: "schema", Success: true, Severity: SeverityError, Message: "plan conforms to schema"}
}

// validateTypeSanity is a separate pass from pure schema, surfacing clearer
// messages for shape and naming problems that a generic schema error would
// otherwise bury: duplicate names, malformed event names, and the reserved
// workflow_complete sink being declared directly.
func validateTypeSanity(p *plan.Plan) ValidationResult {
	seenEvents := make(map[string]bool)
	for _, e := range p.Events {
		if e.Name == "" {
			return fail("types", "an event entry has an empty name")
		}
		if seenEvents[e.Name] {
			return fail("types", fmt.Sprintf("duplicate event name %q", e.Name))
		}
		seenEvents[e.Name] = true
		if e.Name == plan.WorkflowCompleteEvent {
			return fail("types", fmt.Sprintf("%q is a reserved internal event and must not be declared", plan.WorkflowCompleteEvent))
		}
	}

	seenSteps := make(map[string]bool)
	declared := make(map[string]bool, len(seenEvents))
	for name := range seenEvents {
		declared[name] = true
	}
	emitted := make(map[string]bool)
	for _, s := range p.Steps {
		for _, e := range s.Emits {
			emitted[e] = true
		}
	}

	for _, s := range p.Steps {
		if s.Name == "" {
			return fail("types", "a step entry has an empty name")
		}
		if seenSteps[s.Name] {
			return fail("types", fmt.Sprintf("duplicate step name %q", s.Name))
		}
		seenSteps[s.Name] = true
		if s.Action == "" {
			return fail("types", fmt.Sprintf("step %q has no action", s.Name))
		}
		for _, on := range s.On {
			if !declared[on] && !emitted[on] {
				return fail("types", fmt.Sprintf("step %q depends on undeclared event %q", s.Name, on))
			}
		}
	}

	return ValidationResult{Name: "types", Success: true, Severity: SeverityError, Message: "field shapes and names are well-formed"}
}

func fail(name, msg string) ValidationResult {
	return ValidationResult{Name: name, Success: false, Severity: SeverityError, Message: msg}
}
