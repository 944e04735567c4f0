package cmd

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sofmeright/rulestack/src/engine"
	"github.com/sofmeright/rulestack/src/output"
	"github.com/sofmeright/rulestack/src/ruleset"
)

var analyzersCmd = &cobra.Command{
	Use:   "analyzers [config-file]",
	Short: "List the Go analyzers the effective config enables",
	Long: `Resolve the project config and list the built-in Go analyzers (rules in
the "go/" namespace) it enables, with their severity and flag values.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyzers,
}

func init() {
	rootCmd.AddCommand(analyzersCmd)
}

func runAnalyzers(cmd *cobra.Command, args []string) error {
	path := cfg.Resolve.ConfigFile
	if len(args) > 0 {
		path = args[0]
	}
	res, err := resolveProject(cmd.Context(), path)
	if err != nil {
		return err
	}

	selected, engineDiags, err := engine.Default().Select(res.Config)
	if err != nil {
		return err
	}

	for _, s := range selected {
		flags := ""
		s.Analyzer.Flags.VisitAll(func(f *flag.Flag) {
			flags += fmt.Sprintf(" %s=%s", f.Name, s.Flags[f.Name])
		})
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-5s%s\n", s.Rule, s.Severity, flags)
	}

	diags := append(res.Diagnostics, engineDiags...)
	ruleset.SortDiagnostics(diags)
	printer := &output.Printer{Writer: cmd.ErrOrStderr(), Color: output.UseColor()}
	printer.Print(diags)
	return nil
}
