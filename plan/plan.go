// Package plan holds the Plan document type and the process-wide tool and
// event registries that the validator and instruction processor consult.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GraphType selects the soundness rules a Plan is held to.
type GraphType string

const (
	GraphAcyclic  GraphType = "acyclic"
	GraphReactive GraphType = "reactive"
)

// WorkflowCompleteEvent is the synthesized sink name reserved for the Petri
// net validator; a plan may never declare it directly.
const WorkflowCompleteEvent = "event.workflow_complete"

// Event is one entry of plan.events: an event name, optionally tied to an
// external trigger kind/schedule.
type Event struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Schedule    string `json:"schedule,omitempty"`
	Description string `json:"description,omitempty"`
}

// External reports whether this event entry names a real trigger source.
func (e Event) External() bool {
	return e.Kind != ""
}

// Step is one entry of plan.steps.
type Step struct {
	Name        string         `json:"name"`
	On          []string       `json:"on"`
	Action      string         `json:"action"`
	Args        map[string]any `json:"args"`
	Emits       []string       `json:"emits"`
	Guard       string         `json:"guard,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Plan is the Petri-net-structured workflow document produced by the
// instruction processor and gated by the validator before persistence.
type Plan struct {
	PlanName  string    `json:"plan_name"`
	GraphType GraphType `json:"graph_type"`
	Events    []Event   `json:"events"`
	Steps     []Step    `json:"steps"`

	Summary        string `json:"summary,omitempty"`
	RevisedFrom    string `json:"revised_from,omitempty"`
	RevisionReason string `json:"revision_reason,omitempty"`

	// Set by the instruction processor after a successful generation
	// not part of the schema a planner is expected to emit.
	InstructionID   string `json:"instruction_id,omitempty"`
	InstructionName string `json:"instruction_name,omitempty"`
}

// ParsePlan decodes a plan from JSON, rejecting unknown top-level keys per
// a candidate plan must satisfy.
func ParsePlan(raw []byte) (*Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("plan: decode: %w", err)
	}
	return &p, nil
}

// ToJSON re-encodes the plan in the same wire shape.
func (p *Plan) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
