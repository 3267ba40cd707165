package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picklr-io/stackctl/internal/engine"
)

var deployOverwrite bool

var deployCmd = &cobra.Command{
	Use:   "deploy [config]",
	Short: "Deploy a stack",
	Long: `Deploys every resource in the stack config, in the order they are listed.

Resources already recorded in the stack status are updated in place. The
status is saved only when every resource deployed; a failure leaves the
previous status untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().BoolVarP(&deployOverwrite, "overwrite", "o", false, "Overwrite existing workspace objects")
	addBackendFlags(deployCmd)
	addPropertyFlags(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath(args)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Deploying %s to %s\n", configPath, client.Host())

	st, err := newEngine(client).Deploy(cmd.Context(), configPath, engine.DeployOptions{
		Overwrite: deployOverwrite,
		Backend:   backendFromFlags(),
		Callback:  deployProgress(out),
	})
	if err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}

	fmt.Fprintf(out, "\nDeploy complete! Stack %q: %d resource(s) deployed.\n", st.Name, len(st.Deployed))
	return nil
}
