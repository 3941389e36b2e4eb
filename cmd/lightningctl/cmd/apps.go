package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lightning-os/runtime/provider"
)

// An "app" is a validated plan persisted under a stable id so an operator
// can list, inspect, and retire it later. Persistence goes through the
// configured StorageProvider's DocumentStore rather than a bespoke file
// format, so register-app exercises the same storage stack as the runtime.

func newRegisterAppCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "register-app <plan-file>",
		Short: "Validate a plan and register it as a persisted app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			p, err := readPlanFile(args[0])
			if err != nil {
				return err
			}

			validator, err := cc.newValidator()
			if err != nil {
				return err
			}
			results, verr := validator.Validate(p)
			printValidationResults(cmd.OutOrStdout(), results)
			if verr != nil {
				return verr
			}

			ctx := cmd.Context()
			ds, closeFn, err := cc.appsStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			planJSON, err := p.ToJSON()
			if err != nil {
				return err
			}
			var data map[string]any
			if err := json.Unmarshal(planJSON, &data); err != nil {
				return err
			}

			id := uuid.NewString()
			doc := &provider.Document{ID: id, PartitionKey: id, Data: data}
			if _, err := ds.Create(cmd.Context(), doc); err != nil {
				return fmt.Errorf("register app: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered app %s (plan %q)\n", id, p.PlanName)
			return nil
		},
	}
	return c
}

func newUnregisterAppCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister-app <plan-id>",
		Short: "Remove a registered app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ds, closeFn, err := cc.appsStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			id := args[0]
			ok, err := ds.Delete(ctx, id, id)
			if err != nil {
				return fmt.Errorf("unregister app: %w", err)
			}
			if !ok {
				return fmt.Errorf("unregister app: %s not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unregistered app %s\n", id)
			return nil
		},
	}
}

func newListAppsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-apps",
		Short: "List registered apps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ds, closeFn, err := cc.appsStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			docs, err := ds.ListAll(ctx, "", 0)
			if err != nil {
				return fmt.Errorf("list apps: %w", err)
			}
			for _, d := range docs {
				name, _ := d.Data["plan_name"].(string)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, name)
			}
			return nil
		},
	}
}

func newShowAppCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show-app <plan-id>",
		Short: "Print the full plan document for a registered app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ds, closeFn, err := cc.appsStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			id := args[0]
			doc, err := ds.Read(ctx, id, id)
			if err != nil {
				return fmt.Errorf("show app: %w", err)
			}
			raw, err := json.MarshalIndent(doc.Data, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
}
