package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofmeright/rulestack/src/output"
)

var ignoredProject string

var ignoredCmd = &cobra.Command{
	Use:   "ignored <path...>",
	Short: "Check paths against the effective ignore patterns",
	Long: `Resolve the project config and report, for each path, whether the
accumulated ignorePatterns exclude it. Paths are taken relative to the
working directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIgnored,
}

func init() {
	ignoredCmd.Flags().StringVar(&ignoredProject, "project", "", "project config (default: from config, then .eslintrc.*)")

	rootCmd.AddCommand(ignoredCmd)
}

func runIgnored(cmd *cobra.Command, args []string) error {
	path := cfg.Resolve.ConfigFile
	if ignoredProject != "" {
		path = ignoredProject
	}
	res, err := resolveProject(cmd.Context(), path)
	if err != nil {
		return err
	}

	for _, p := range args {
		status := "included"
		if res.Config.Ignored(filepath.ToSlash(p)) {
			status = "ignored"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", status, p)
	}
	printer := &output.Printer{Writer: cmd.ErrOrStderr(), Color: output.UseColor()}
	printer.Print(res.Diagnostics)
	return nil
}
