package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/picklr-io/stackctl/internal/ir"
)

var (
	statusShowService string
	statusJSON        bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect the recorded stack status",
	Long:  `Commands for inspecting what the last successful deploy recorded.`,
}

var statusListCmd = &cobra.Command{
	Use:   "list [config]",
	Short: "List deployed resources",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatusList,
}

var statusShowCmd = &cobra.Command{
	Use:   "show <id> [config]",
	Short: "Show the physical id and deploy output of a single resource",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runStatusShow,
}

func init() {
	statusCmd.AddCommand(statusListCmd)
	statusCmd.AddCommand(statusShowCmd)

	statusListCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	statusShowCmd.Flags().StringVar(&statusShowService, "service", "", "Service of the resource, when the id alone is ambiguous")
	addBackendFlags(statusListCmd)
	addBackendFlags(statusShowCmd)
}

func readStatus(cmd *cobra.Command, args []string) (*ir.StackStatus, error) {
	configPath, err := resolveConfigPath(args)
	if err != nil {
		return nil, err
	}
	st, err := newOfflineEngine().ReadStatus(cmd.Context(), configPath, backendFromFlags())
	if err != nil {
		return nil, fmt.Errorf("failed to read stack status: %w", err)
	}
	return st, nil
}

func runStatusList(cmd *cobra.Command, args []string) error {
	st, err := readStatus(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if st.IsEmpty() {
		fmt.Fprintln(out, "The stack has not been deployed yet.")
		return nil
	}

	fmt.Fprintf(out, "Stack %q (deployed by stackctl %s)\n\n", st.Name, st.CLIVersion)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVICE\tPHYSICAL ID\tDEPLOYED AT")
	for _, res := range st.Deployed {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.ID, res.Service, formatPhysicalID(res.PhysicalID),
			time.UnixMilli(res.Timestamp).UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func runStatusShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	st, err := readStatus(cmd, args[1:])
	if err != nil {
		return err
	}

	var matches []*ir.ResourceStatus
	for _, res := range st.Deployed {
		if res.ID == id && (statusShowService == "" || string(res.Service) == statusShowService) {
			matches = append(matches, res)
		}
	}

	switch len(matches) {
	case 0:
		return fmt.Errorf("resource %q not found in stack status", id)
	case 1:
	default:
		return fmt.Errorf("resource id %q is recorded under %d services, use --service to pick one", id, len(matches))
	}

	res := matches[0]
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", res.Key())
	fmt.Fprintf(out, "physical_id = %s\n", formatPhysicalID(res.PhysicalID))
	fmt.Fprintf(out, "deployed_at = %s\n", time.UnixMilli(res.Timestamp).UTC().Format(time.RFC3339))

	output, err := json.MarshalIndent(res.DeployOutput, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render deploy output: %w", err)
	}
	fmt.Fprintf(out, "deploy_output = %s\n", output)
	return nil
}
