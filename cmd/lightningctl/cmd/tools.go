package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newListToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-tools",
		Short: "List tools visible to the planner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			views := cc.tools.GetPlannerTools("")
			names := make([]string, 0, len(views))
			for name := range views {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				v := views[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tproduces=%v\tinputs=%v\n", name, v.Description, v.Produces, v.Inputs)
			}
			return nil
		},
	}
}
