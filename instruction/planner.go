package instruction

import (
	"context"
	"fmt"

	"github.com/lightning-os/runtime/plan"
)

// Planner is the external planner collaborator contract: given a
// natural-language instruction prompt, a registry subset the planner may
// use, an optional model id, and an optional user id, it returns a parsed
// plan. On failure it returns an error whose message is added to the next
// attempt's conversation.
type Planner interface {
	GeneratePlan(ctx context.Context, prompt string, tools map[string]plan.PlannerToolView, events []plan.EventDefinition, modelID, userID string) (*plan.Plan, error)
}

// PlannerError wraps a planner failure after every retry has been spent,
// surfaced to the instruction processor.
type PlannerError struct {
	InstructionID string
	Attempts      int
	Last          error
}

func (e *PlannerError) Error() string {
	return fmt.Sprintf("instruction %s: planner failed after %d attempts: %v", e.InstructionID, e.Attempts, e.Last)
}

func (e *PlannerError) Unwrap() error { return e.Last }
