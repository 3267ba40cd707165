package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan [config]",
	Short: "Preview what a deploy would do",
	Long: `Compares the stack config with the recorded stack status and shows
which resources a deploy would create or update. Nothing is sent to the
platform.

Resources recorded in the status but no longer in the config are listed as
orphaned. Deploy does not delete them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output in JSON format")
	addBackendFlags(planCmd)
	addPropertyFlags(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath(args)
	if err != nil {
		return err
	}

	plan, err := newOfflineEngine().Plan(cmd.Context(), configPath, backendFromFlags())
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if planJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	if plan.Summary.Create+plan.Summary.Update+plan.Summary.Orphaned == 0 {
		fmt.Fprintln(out, "No changes. Stack is up-to-date.")
		return nil
	}

	fmt.Fprintf(out, "Stack %q: a deploy will perform the following actions:\n", plan.StackName)
	renderPlanChanges(out, plan)
	renderPlanSummary(out, plan)
	return nil
}
