package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picklr-io/stackctl/internal/eval"
	"github.com/picklr-io/stackctl/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Validate a stack config",
	Long:  `Loads the stack config and checks its structure without contacting the platform.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	addPropertyFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checking %s... ", configPath)

	cfg, err := eval.NewEvaluator(properties).LoadConfig(cmd.Context(), configPath)
	if err == nil {
		err = validation.ValidateConfig(cfg)
	}
	if err != nil {
		fmt.Fprintln(out, "FAILED")
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Fprintln(out, "OK")

	for _, res := range cfg.Resources {
		if !res.Service.Known() {
			fmt.Fprintf(out, "%swarning:%s resource %q uses service %q, which deploy does not support\n",
				colorize(colorYellow), colorize(colorReset), res.ID, res.Service)
		}
	}

	fmt.Fprintf(out, "\nStack %q is valid (%d resources).\n", cfg.Name, len(cfg.Resources))
	return nil
}
