package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandHelp(t *testing.T) {
	root := NewRootCommand()
	require.Equal(t, "lightningctl", root.Use)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())
	require.Contains(t, buf.String(), "generate")
	require.Contains(t, buf.String(), "validate")
}

func TestPrintVersionIncludesCommit(t *testing.T) {
	require.Contains(t, PrintVersion(), Version)
	require.Contains(t, PrintVersion(), Commit)
}

func validPlanJSON(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"plan_name":  "demo",
		"graph_type": "reactive",
		"events":     []map[string]any{{"name": "event.manual.trigger", "kind": "manual"}},
		"steps": []map[string]any{
			{"name": "s", "on": []string{"event.manual.trigger"}, "action": "noop", "args": map[string]any{}, "emits": []string{}},
		},
	})
	require.NoError(t, err)
	return string(raw)
}

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateCommandSucceedsOnValidPlan(t *testing.T) {
	path := writePlanFile(t, validPlanJSON(t))

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--tools-file", writeNoopToolsFile(t), "validate", path})
	require.NoError(t, root.Execute())
}

func TestValidateCommandFailsOnUnknownTool(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"plan_name":  "demo",
		"graph_type": "reactive",
		"events":     []map[string]any{{"name": "event.manual.trigger", "kind": "manual"}},
		"steps": []map[string]any{
			{"name": "s", "on": []string{"event.manual.trigger"}, "action": "nonexistent_tool", "args": map[string]any{}, "emits": []string{}},
		},
	})
	require.NoError(t, err)
	path := writePlanFile(t, string(raw))

	root := NewRootCommand()
	root.SetArgs([]string{"validate", path})
	require.Error(t, root.Execute())
}
