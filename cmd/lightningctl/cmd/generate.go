package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightning-os/runtime/cmd/lightningctl/internal/planner"
)

func newGenerateCommand() *cobra.Command {
	var endpoint, modelID, userID string

	c := &cobra.Command{
		Use:   "generate <instruction>",
		Short: "Generate a plan from a natural-language instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadContext(cmd)
			if err != nil {
				return err
			}
			if endpoint == "" {
				return fmt.Errorf("generate: --planner-endpoint is required (no built-in LLM vendor)")
			}

			p := planner.NewHTTPPlanner(endpoint)
			tools := cc.tools.GetPlannerTools(userID)
			events := cc.events.GetExternalEvents()

			result, err := p.GeneratePlan(cmd.Context(), args[0], tools, events, modelID, userID)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			validator, err := cc.newValidator()
			if err != nil {
				return err
			}
			results, verr := validator.Validate(result)
			printValidationResults(cmd.OutOrStdout(), results)
			if verr != nil {
				return verr
			}

			raw, err := result.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}

	c.Flags().StringVar(&endpoint, "planner-endpoint", "", "HTTP endpoint implementing the planner collaborator contract")
	c.Flags().StringVar(&modelID, "model", "", "optional model id passed through to the planner")
	c.Flags().StringVarP(&userID, "user", "u", "", "user id the generated plan belongs to")
	return c
}
