package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func withIsolatedStorage(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.db")
	t.Setenv("LIGHTNING_STORAGE_PATH", path)
}

func TestAppLifecycleRegisterListShowUnregister(t *testing.T) {
	withIsolatedStorage(t)
	planPath := writePlanFile(t, validPlanJSON(t))

	registerOut := new(bytes.Buffer)
	registerCmd := NewRootCommand()
	registerCmd.SetOut(registerOut)
	registerCmd.SetArgs([]string{"--tools-file", writeNoopToolsFile(t), "register-app", planPath})
	require.NoError(t, registerCmd.Execute())

	listOut := new(bytes.Buffer)
	listCmd := NewRootCommand()
	listCmd.SetOut(listOut)
	listCmd.SetArgs([]string{"list-apps"})
	require.NoError(t, listCmd.Execute())
	require.Contains(t, listOut.String(), "demo")

	fields := bytes.Fields(listOut.Bytes())
	require.NotEmpty(t, fields)
	appID := string(fields[0])

	showOut := new(bytes.Buffer)
	showCmd := NewRootCommand()
	showCmd.SetOut(showOut)
	showCmd.SetArgs([]string{"show-app", appID})
	require.NoError(t, showCmd.Execute())
	require.Contains(t, showOut.String(), "demo")

	unregisterCmd := NewRootCommand()
	unregisterCmd.SetArgs([]string{"unregister-app", appID})
	require.NoError(t, unregisterCmd.Execute())

	unregisterAgainCmd := NewRootCommand()
	unregisterAgainCmd.SetArgs([]string{"unregister-app", appID})
	require.Error(t, unregisterAgainCmd.Execute())
}
