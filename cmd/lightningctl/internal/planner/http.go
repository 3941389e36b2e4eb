// Package planner is the CLI's built-in Planner collaborator: it delegates
// plan generation to an HTTP endpoint, since the core never depends on a
// specific LLM vendor.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lightning-os/runtime/plan"
)

// HTTPPlanner posts a generation request to Endpoint and parses the response
// body as a Plan. It satisfies instruction.Planner.
type HTTPPlanner struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPPlanner(endpoint string) *HTTPPlanner {
	return &HTTPPlanner{Endpoint: endpoint, Client: &http.Client{Timeout: 60 * time.Second}}
}

type generateRequest struct {
	Prompt  string                          `json:"prompt"`
	Tools   map[string]plan.PlannerToolView `json:"tools"`
	Events  []plan.EventDefinition          `json:"events"`
	ModelID string                          `json:"model_id,omitempty"`
	UserID  string                          `json:"user_id,omitempty"`
}

// generateResponse is the planner's reply envelope: a plan field holding
// the candidate plan as raw JSON, plus a human-readable summary the CLI
// does not otherwise use.
type generateResponse struct {
	Plan    json.RawMessage `json:"plan"`
	Summary string          `json:"summary,omitempty"`
}

func (p *HTTPPlanner) GeneratePlan(ctx context.Context, prompt string, tools map[string]plan.PlannerToolView, events []plan.EventDefinition, modelID, userID string) (*plan.Plan, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt, Tools: tools, Events: events, ModelID: modelID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("planner: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("planner: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("planner: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("planner: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("planner: endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var envelope generateResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("planner: decode response envelope: %w", err)
	}
	if len(envelope.Plan) == 0 {
		return nil, fmt.Errorf("planner: response missing \"plan\" field")
	}

	return plan.ParsePlan(envelope.Plan)
}
