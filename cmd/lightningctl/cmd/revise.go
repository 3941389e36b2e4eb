package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightning-os/runtime/cmd/lightningctl/internal/planner"
	"github.com/lightning-os/runtime/instruction"
	"github.com/lightning-os/runtime/plan"
	"github.com/lightning-os/runtime/provider"
)

func newReviseCommand() *cobra.Command {
	var endpoint, userID string
	c := &cobra.Command{
		Use:   "revise <app-id> <critique>",
		Short: "Revise a registered app's plan from a critique and persist the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			if endpoint == "" {
				return fmt.Errorf("revise: --planner-endpoint is required (no built-in LLM vendor)")
			}
			appID, critique := args[0], args[1]

			ctx := cmd.Context()
			ds, closeFn, err := cc.appsStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := ds.Read(ctx, appID, appID)
			if err != nil {
				return fmt.Errorf("revise: load app %s: %w", appID, err)
			}
			raw, err := json.Marshal(doc.Data)
			if err != nil {
				return err
			}
			existing, err := plan.ParsePlan(raw)
			if err != nil {
				return fmt.Errorf("revise: parse stored plan: %w", err)
			}

			validator, err := cc.newValidator()
			if err != nil {
				return err
			}

			// A fresh MemoryStore seeded with the app's current id as the
			// revision parent: SaveRevision only needs that id to exist for
			// the duration of this command, since the revised content is
			// what gets persisted back to the app document.
			store := plan.NewMemoryStore()
			store.Seed(appID, userID, existing)

			proc := instruction.NewProcessor(planner.NewHTTPPlanner(endpoint), validator, cc.tools, cc.events, store, cc.logger, nil)

			newID, revised, err := proc.Revise(ctx, appID, existing, critique)
			if err != nil {
				return fmt.Errorf("revise: %w", err)
			}

			revisedJSON, err := revised.ToJSON()
			if err != nil {
				return err
			}
			var data map[string]any
			if err := json.Unmarshal(revisedJSON, &data); err != nil {
				return err
			}
			if _, err := ds.Update(ctx, &provider.Document{ID: appID, PartitionKey: appID, Data: data, ETag: doc.ETag}); err != nil {
				return fmt.Errorf("revise: persist revision: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "revised app %s (revision id %s, revised_from=%s)\n", appID, newID, revised.RevisedFrom)
			fmt.Fprintln(cmd.OutOrStdout(), string(revisedJSON))
			return nil
		},
	}
	c.Flags().StringVar(&endpoint, "planner-endpoint", "", "HTTP endpoint implementing the planner collaborator contract")
	c.Flags().StringVarP(&userID, "user", "u", "", "user id attributed to the revision")
	return c
}
