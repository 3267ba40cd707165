package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/picklr-io/stackctl/internal/deployer"
	"github.com/picklr-io/stackctl/internal/engine"
	"github.com/picklr-io/stackctl/internal/eval"
	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/remote"
	"github.com/picklr-io/stackctl/internal/state"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// defaultConfigNames are tried in order when no config file is given.
var defaultConfigNames = []string{"stack.json", "stack.yaml", "stack.yml", "stack.pkl"}

var (
	backendType   string
	backendConfig map[string]string
	properties    map[string]string
)

func colorize(code string) string {
	if noColor {
		return ""
	}
	return code
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backendType, "backend", "", "Status backend: local (default) or s3")
	cmd.Flags().StringToStringVar(&backendConfig, "backend-config", nil, "Status backend settings (format: key=value)")
}

func addPropertyFlags(cmd *cobra.Command) {
	cmd.Flags().StringToStringVarP(&properties, "prop", "D", nil, "Set external properties for .pkl configs (format: key=value)")
}

// backendFromFlags returns nil when no backend flag was given, which means
// the status file next to the config.
func backendFromFlags() *state.BackendConfig {
	if backendType == "" && len(backendConfig) == 0 {
		return nil
	}
	return &state.BackendConfig{Type: backendType, Config: backendConfig}
}

// resolveConfigPath picks the config file from the command arguments. A
// directory, or no argument at all, is searched for a stack.* file.
func resolveConfigPath(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		info, err := os.Stat(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to stat path %s: %w", args[0], err)
		}
		if !info.IsDir() {
			return args[0], nil
		}
		dir = args[0]
	}

	for _, name := range defaultConfigNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no config file found in %s (looked for %v)", dir, defaultConfigNames)
}

// newOfflineEngine returns an engine for commands that never contact the
// platform. Its deployers have no services behind them.
func newOfflineEngine() *engine.Engine {
	return engine.NewEngine(deployer.NewRegistry(nil, nil), engine.WithEvaluator(eval.NewEvaluator(properties)))
}

func newEngine(client *remote.Client) *engine.Engine {
	return engine.NewEngine(deployer.NewRegistry(client, client), engine.WithEvaluator(eval.NewEvaluator(properties)))
}

// renderPlanChanges prints the detailed change list for a plan.
func renderPlanChanges(w io.Writer, plan *ir.Plan) {
	for _, change := range plan.Changes {
		if change.Action == ir.ActionNoOp {
			continue
		}

		symbol, color := "~", colorYellow
		switch change.Action {
		case ir.ActionCreate:
			symbol, color = "+", colorGreen
		case ir.ActionOrphaned:
			symbol, color = "?", colorCyan
		}

		fmt.Fprintf(w, "\n%s  # %s will be %s%s\n", colorize(color), change.Key, actionVerb(change.Action), colorize(colorReset))
		fmt.Fprintf(w, "%s  %s %s %q {%s\n", colorize(color), symbol, change.Service, change.ID, colorize(colorReset))
		if change.PriorPhysicalID != nil {
			fmt.Fprintf(w, "        physical_id = %s\n", formatPhysicalID(change.PriorPhysicalID))
		}
		renderPropertyDiff(w, change.Diff)
		fmt.Fprintf(w, "%s    }%s\n", colorize(color), colorize(colorReset))
	}
}

func actionVerb(action string) string {
	switch action {
	case ir.ActionCreate:
		return "created"
	case ir.ActionUpdate:
		return "updated"
	case ir.ActionOrphaned:
		return "left in place (no longer in the config)"
	default:
		return "unchanged"
	}
}

// renderPropertyDiff prints structured property diffs in key order.
func renderPropertyDiff(w io.Writer, diff map[string]*ir.PropertyDiff) {
	keys := make([]string, 0, len(diff))
	for k := range diff {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		d := diff[key]
		switch d.Action {
		case "create":
			fmt.Fprintf(w, "%s      + %s = %v%s\n", colorize(colorGreen), key, formatValue(d.After), colorize(colorReset))
		case "delete":
			fmt.Fprintf(w, "%s      - %s = %v%s\n", colorize(colorRed), key, formatValue(d.Before), colorize(colorReset))
		case "update":
			fmt.Fprintf(w, "%s      ~ %s = %v -> %v%s\n", colorize(colorYellow), key, formatValue(d.Before), formatValue(d.After), colorize(colorReset))
		}
	}
}

// renderPlanSummary prints the plan summary counts.
func renderPlanSummary(w io.Writer, plan *ir.Plan) {
	fmt.Fprintln(w, "\nPlan Summary:")
	fmt.Fprintf(w, "  Create:   %d\n", plan.Summary.Create)
	fmt.Fprintf(w, "  Update:   %d\n", plan.Summary.Update)
	fmt.Fprintf(w, "  NoOp:     %d\n", plan.Summary.NoOp)
	fmt.Fprintf(w, "  Orphaned: %d\n", plan.Summary.Orphaned)
}

// formatValue returns a human-readable representation of a value.
func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func formatPhysicalID(id *ir.PhysicalID) string {
	switch {
	case id == nil:
		return "-"
	case id.JobID != 0:
		return fmt.Sprintf("job_id=%d", id.JobID)
	case id.Path != "":
		return "path=" + id.Path
	default:
		return "-"
	}
}

// deployProgress renders engine events as they arrive.
func deployProgress(w io.Writer) engine.DeployCallback {
	return func(ev engine.DeployEvent) {
		switch ev.Status {
		case engine.EventStarted:
			fmt.Fprintf(w, "%s: deploying...\n", ev.Key)
		case engine.EventCompleted:
			fmt.Fprintf(w, "%s%s: done [%s] (%s)%s\n", colorize(colorGreen), ev.Key,
				formatPhysicalID(ev.PhysicalID), ev.Duration.Round(time.Millisecond), colorize(colorReset))
		case engine.EventFailed:
			fmt.Fprintf(w, "%s%s: failed (%s)%s\n", colorize(colorRed), ev.Key, ev.Duration.Round(time.Millisecond), colorize(colorReset))
		}
	}
}
