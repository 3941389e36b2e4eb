package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/internal/logging"
)

func TestToolRegistryFirstRegistrationWins(t *testing.T) {
	r := NewToolRegistry(logging.Nop{})
	r.Register(ToolMetadata{ID: "t1", Name: "summarize", Enabled: true, AccessScopes: map[AccessScope]struct{}{ScopePlanner: {}}})
	r.Register(ToolMetadata{ID: "t1", Name: "shadowed", Enabled: true})

	got, ok := r.Get("t1")
	require.True(t, ok)
	require.Equal(t, "summarize", got.Name)
}

func TestGetPlannerToolsOnlyExposesPlannerScope(t *testing.T) {
	r := NewToolRegistry(nil)
	r.Register(ToolMetadata{
		ID: "t1", Name: "summarize", Enabled: true, Description: "summarizes text",
		Inputs: map[string]string{"text": "string"}, Produces: []string{"event.summary_complete"},
		AccessScopes: map[AccessScope]struct{}{ScopePlanner: {}},
	})
	r.Register(ToolMetadata{
		ID: "t2", Name: "admin_only", Enabled: true,
		AccessScopes: map[AccessScope]struct{}{ScopeAdmin: {}},
	})
	r.Register(ToolMetadata{
		ID: "t3", Name: "disabled", Enabled: false,
		AccessScopes: map[AccessScope]struct{}{ScopePlanner: {}},
	})

	views := r.GetPlannerTools("")
	require.Len(t, views, 1)
	require.Contains(t, views, "summarize")
	require.Equal(t, []string{"event.summary_complete"}, views["summarize"].Produces)
}

func TestFilterBySelectors(t *testing.T) {
	r := NewToolRegistry(nil)
	r.Register(ToolMetadata{ID: "t1", Name: "a", Type: ToolLLM, Enabled: true, Capabilities: map[string]struct{}{"text": {}}})
	r.Register(ToolMetadata{ID: "t2", Name: "b", Type: ToolNative, Enabled: true, Capabilities: map[string]struct{}{"io": {}}})

	got := r.Filter(ToolLLM, "", "")
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Name)

	got = r.Filter("", "io", "")
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].Name)
}
