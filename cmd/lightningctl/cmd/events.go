package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newListEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-events",
		Short: "List registered external events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			defs := cc.events.GetExternalEvents()
			sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
			for _, d := range defs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tkind=%s\tschedule=%q\n", d.Name, d.Kind, d.Schedule)
			}
			return nil
		},
	}
}
