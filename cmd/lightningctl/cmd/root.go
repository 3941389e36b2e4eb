package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version information (set during build)
	Version string = "dev"
	Commit  string = "none"
	Date    string = "unknown"
)

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// NewRootCommand builds the lightningctl command tree: generate, validate,
// execute, setup, list-tools, list-events, register-app, unregister-app,
// list-apps, show-app, revise.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "lightningctl",
		Short:   "Operate a Lightning Runtime instance from the command line",
		Long:    `lightningctl drives instruction-to-plan generation, plan validation, and app lifecycle for a Lightning Runtime deployment.`,
		Version: PrintVersion(),
	}

	root.PersistentFlags().String("config", "", "path to a JSON/YAML/TOML config file (env LIGHTNING_* always overrides)")
	root.PersistentFlags().String("tools-file", "", "path to a JSON file describing the tool registry seed")
	root.PersistentFlags().String("events-file", "", "path to a JSON file describing additional event registry entries")

	root.AddCommand(newGenerateCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newExecuteCommand())
	root.AddCommand(newSetupCommand())
	root.AddCommand(newListToolsCommand())
	root.AddCommand(newListEventsCommand())
	root.AddCommand(newRegisterAppCommand())
	root.AddCommand(newUnregisterAppCommand())
	root.AddCommand(newListAppsCommand())
	root.AddCommand(newShowAppCommand())
	root.AddCommand(newReviseCommand())

	return root
}

func PrintVersion() string {
	return fmt.Sprintf("%s (commit: %s, built on: %s)", Version, Commit, Date)
}
