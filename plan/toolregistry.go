package plan

import (
	"sync"

	"github.com/lightning-os/runtime/internal/logging"
)

// ToolType is the kind of behavior a tool registry entry resolves to.
type ToolType string

const (
	ToolAgent  ToolType = "AGENT"
	ToolLLM    ToolType = "LLM"
	ToolNative ToolType = "NATIVE"
	ToolMCP    ToolType = "MCP"
	ToolAPI    ToolType = "API"
)

// AccessScope gates who may see a tool; PLANNER is the scope the instruction
// processor's prompt is built from.
type AccessScope string

const (
	ScopePlanner AccessScope = "PLANNER"
	ScopeAdmin   AccessScope = "ADMIN"
	ScopeUser    AccessScope = "USER"
)

// ToolMetadata describes one registered tool.
type ToolMetadata struct {
	ID           string
	Name         string
	Description  string
	Type         ToolType
	AccessScopes map[AccessScope]struct{}
	Capabilities map[string]struct{}
	Inputs       map[string]string // name -> type
	Produces     []string          // event names
	Enabled      bool
}

// HasScope reports whether the tool is visible under the given scope.
func (t ToolMetadata) HasScope(scope AccessScope) bool {
	_, ok := t.AccessScopes[scope]
	return ok
}

// PlannerToolView is the shape exposed to a planner prompt: everything it
// needs to decide whether and how to call a tool, nothing else.
type PlannerToolView struct {
	Inputs      map[string]string `json:"inputs,omitempty"`
	Produces    []string          `json:"produces,omitempty"`
	Description string            `json:"description"`
}

// ToolRegistry is the process-wide {id -> ToolMetadata} table. First
// registration for a given id wins; later ones are logged and skipped.
type ToolRegistry struct {
	mu     sync.RWMutex
	byID   map[string]ToolMetadata
	logger logging.Logger
}

func NewToolRegistry(logger logging.Logger) *ToolRegistry {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &ToolRegistry{byID: make(map[string]ToolMetadata), logger: logger}
}

// Register adds a tool, skipping (and logging) a conflicting id.
func (r *ToolRegistry) Register(t ToolMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[t.ID]; exists {
		r.logger.Warn("tool registry: id already registered, skipping", "id", t.ID)
		return
	}
	r.byID[t.ID] = t
}

// Get looks up a tool by id.
func (r *ToolRegistry) Get(id string) (ToolMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// GetByName is a convenience lookup used by the "tools" validator, which
// cross-checks a step's action against registered tool names.
func (r *ToolRegistry) GetByName(name string) (ToolMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byID {
		if t.Name == name {
			return t, true
		}
	}
	return ToolMetadata{}, false
}

// Filter returns every enabled tool matching the non-empty selectors.
func (r *ToolRegistry) Filter(toolType ToolType, capability string, scope AccessScope) []ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ToolMetadata
	for _, t := range r.byID {
		if !t.Enabled {
			continue
		}
		if toolType != "" && t.Type != toolType {
			continue
		}
		if capability != "" {
			if _, ok := t.Capabilities[capability]; !ok {
				continue
			}
		}
		if scope != "" && !t.HasScope(scope) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GetPlannerTools returns the planner-facing view of every tool visible
// under scope PLANNER, keyed by name. The user argument is accepted for
// forward compatibility with per-user visibility and currently unused.
func (r *ToolRegistry) GetPlannerTools(user string) map[string]PlannerToolView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]PlannerToolView)
	for _, t := range r.byID {
		if !t.Enabled || !t.HasScope(ScopePlanner) {
			continue
		}
		out[t.Name] = PlannerToolView{
			Inputs:      t.Inputs,
			Produces:    t.Produces,
			Description: t.Description,
		}
	}
	return out
}
