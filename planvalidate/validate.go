package planvalidate

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lightning-os/runtime/plan"
)

// Validator runs the full set of plan validators against a pair of
// registries. It is safe for concurrent use: the compiled schema is
// read-only after construction and the registries handle their own
// locking.
type Validator struct {
	schema *jsonschema.Schema
	tools  *plan.ToolRegistry
	events *plan.EventRegistry
}

func NewValidator(tools *plan.ToolRegistry, events *plan.EventRegistry) (*Validator, error) {
	schema, err := compilePlanSchema()
	if err != nil {
		return nil, err
	}
	return &Validator{schema: schema, tools: tools, events: events}, nil
}

// Validate runs the schema/types/external_events/tools validators in
// parallel, then the Petri-net validator sequentially, and returns the
// merged result set. The returned error is a *PlanValidationError iff any
// severity=error result failed.
func (v *Validator) Validate(p *plan.Plan) ([]ValidationResult, error) {
	independents := []func() ValidationResult{
		func() ValidationResult { return validateSchema(v.schema, p) },
		func() ValidationResult { return validateTypeSanity(p) },
		func() ValidationResult { return validateExternalEvents(p, v.events) },
		func() ValidationResult { return validateTools(p, v.tools) },
	}

	results := make([]ValidationResult, len(independents))
	var wg sync.WaitGroup
	for i, fn := range independents {
		wg.Add(1)
		go func(i int, fn func() ValidationResult) {
			defer wg.Done()
			results[i] = fn()
		}(i, fn)
	}
	wg.Wait()

	// The Petri-net validator assumes the plan is at least structurally
	// sane (declared names, no duplicates); skip it only if schema or
	// type sanity already failed, rather than build a net from malformed
	// input. A failing external_events or tools result does not block it.
	structurallySane := results[0].Success && results[1].Success
	if structurallySane {
		results = append(results, validatePetriNet(p, v.events)...)
	}

	if Failing(results) {
		return results, &PlanValidationError{Results: results}
	}
	return results, nil
}
