package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/remote"
)

var (
	hostFlag    string
	tokenFlag   string
	logLevel    string
	logJSON     bool
	noColorFlag bool

	// noColor is resolved before every command from --no-color and whether
	// stdout is a terminal.
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "stackctl",
	Short: "Deploy stacks of jobs and workspace assets",
	Long: `stackctl deploys a stack of platform resources (jobs, notebooks and
workspace directories) described in a single config document.

Each deploy records what it created in a status file next to the config,
so running it again updates the same resources instead of creating new ones.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		noColor = noColorFlag || os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout)
		return logging.Init(logging.Options{Level: logLevel, JSON: logJSON, Writer: cmd.ErrOrStderr()})
	},
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Platform API host (default $"+remote.EnvOverrideHost+")")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Platform API token (default $"+remote.EnvOverrideToken+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds the API client from the environment, with --host and
// --token taking precedence.
func newClient() (*remote.Client, error) {
	opts := []remote.Opt{remote.FromEnv}
	if hostFlag != "" {
		opts = append(opts, remote.WithHost(hostFlag))
	}
	if tokenFlag != "" {
		opts = append(opts, remote.WithToken(tokenFlag))
	}
	return remote.NewClientWithOpts(opts...)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
