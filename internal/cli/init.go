package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const starterConfig = `{
  "name": "%s",
  "resources": [
    {
      "id": "main-job",
      "service": "jobs",
      "properties": {
        "name": "%s-main",
        "max_concurrent_runs": 1,
        "tasks": [
          {
            "task_key": "main",
            "notebook_task": {"notebook_path": "/Shared/%s/main"}
          }
        ]
      }
    },
    {
      "id": "main-notebook",
      "service": "workspace",
      "properties": {
        "source_path": "notebooks/main.py",
        "path": "/Shared/%s/main",
        "object_type": "NOTEBOOK"
      }
    }
  ]
}
`

const starterNotebook = `# Databricks notebook source
print("hello from %s")
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a new stack",
	Long:  `Creates stack.json with one job and one notebook, plus the notebook source.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}
	name := filepath.Base(absDir)
	out := cmd.OutOrStdout()

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(dir, "stack.json"), fmt.Sprintf(starterConfig, name, name, name, name)},
		{filepath.Join(dir, "notebooks", "main.py"), fmt.Sprintf(starterNotebook, name)},
	}

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(out, "Skipped %s (already exists)\n", f.path)
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", f.path, err)
		}

		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.path, err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.path, err)
		}
		fmt.Fprintf(out, "Created %s\n", f.path)
	}

	fmt.Fprintln(out, "\nStack initialized successfully!")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Edit stack.json to describe your resources")
	fmt.Fprintln(out, "  2. Run 'stackctl plan' to see what will be deployed")
	fmt.Fprintln(out, "  3. Run 'stackctl deploy' to deploy the stack")
	return nil
}
