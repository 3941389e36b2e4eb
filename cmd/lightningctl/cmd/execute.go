package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/factory"
)

func newExecuteCommand() *cobra.Command {
	var userID string
	c := &cobra.Command{
		Use:   "execute <plan-file>",
		Short: "Validate a plan and publish it on the plan.execute topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return publishPlanEvent(cmd, args[0], userID, "plan.execute")
		},
	}
	c.Flags().StringVarP(&userID, "user", "u", "", "user id the plan runs as (required)")
	_ = c.MarkFlagRequired("user")
	return c
}

func newSetupCommand() *cobra.Command {
	var userID string
	c := &cobra.Command{
		Use:   "setup <plan-file>",
		Short: "Validate a plan and publish it on the plan.setup topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return publishPlanEvent(cmd, args[0], userID, "plan.setup")
		},
	}
	c.Flags().StringVarP(&userID, "user", "u", "", "user id the plan is registered for (required)")
	_ = c.MarkFlagRequired("user")
	return c
}

func publishPlanEvent(cmd *cobra.Command, planFile, userID, topic string) error {
	cc, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p, err := readPlanFile(planFile)
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

	planJSON, err := p.ToJSON()
	if err != nil {
		return err
	}
	var planData map[string]any
	if err := json.Unmarshal(planJSON, &planData); err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := factory.GetFactory().CreateEventBus(cc.cfg)
	if err != nil {
		return fmt.Errorf("build event bus: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer b.Stop(ctx)

	e := event.New(topic, map[string]any{"plan": planData, "user_id": userID})
	if err := b.Publish(ctx, e, topic); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "published %s for plan %q (event id %s)\n", topic, p.PlanName, e.ID)
	return nil
}
