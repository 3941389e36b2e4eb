package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lightning-os/runtime/plan"
	"github.com/lightning-os/runtime/planvalidate"
)

func newValidateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate <plan-file>",
		Short: "Run the plan validators against a plan file and report the result",
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
			return verr
		},
	}
	return c
}

func readPlanFile(path string) (*plan.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	p, err := plan.ParsePlan(raw)
	if err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}
	return p, nil
}

func printValidationResults(w io.Writer, results []planvalidate.ValidationResult) {
	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s (%s): %s\n", status, r.Name, r.Severity, r.Message)
	}
}
