package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/rulestack/src/engine"
	"github.com/sofmeright/rulestack/src/output"
	"github.com/sofmeright/rulestack/src/ruleset"
)

var (
	resolveStrict          bool
	resolvePreserveOptions bool
	resolveFormat          string
	resolveJUnit           string
	resolveMetrics         string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [config-file]",
	Short: "Print the effective rule configuration",
	Long: `Expand every preset a project config extends, merge them in order with
later layers winning, apply the project's own settings on top and print the
effective configuration.

Without an argument the first of .eslintrc.{yml,yaml,json,toml} in the
working directory is used. Diagnostics go to stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveStrict, "strict", false, "reject undeclared plugin namespaces and non-canonical severities (default: from config)")
	resolveCmd.Flags().BoolVar(&resolvePreserveOptions, "preserve-options", false, "keep earlier rule options when a later layer sets a bare severity")
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "yaml", "output format: yaml, json or toml")
	resolveCmd.Flags().StringVar(&resolveJUnit, "junit", "", "write diagnostics as JUnit XML to this file")
	resolveCmd.Flags().StringVar(&resolveMetrics, "metrics", "", "write preset cache metrics in Prometheus text format to this file")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	format := ruleset.Format(resolveFormat)
	switch format {
	case ruleset.FormatYAML, ruleset.FormatJSON, ruleset.FormatTOML:
	default:
		return fmt.Errorf("unknown --format %q (supported: yaml, json, toml)", resolveFormat)
	}

	path := cfg.Resolve.ConfigFile
	if len(args) > 0 {
		path = args[0]
	}
	proj, path, err := loadProject(path)
	if err != nil {
		return err
	}

	// CLI flag > config
	opts := ruleset.Options{
		Strict:          cfg.Resolve.Strict,
		PreserveOptions: cfg.Resolve.PreserveOptions,
	}
	if cmd.Flags().Changed("strict") {
		opts.Strict = resolveStrict
	}
	if cmd.Flags().Changed("preserve-options") {
		opts.PreserveOptions = resolvePreserveOptions
	}

	src, err := newPresetSource(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()
	if err := src.prefetch(ctx, cfg, proj.Extends, logger); err != nil {
		logger.Debug("prefetch failed, resolving lazily", "error", err)
	}

	logger.Debug("resolving", "config", path, "extends", proj.Extends, "strict", opts.Strict)
	res, err := ruleset.NewResolver(src.loader, logger).ResolveConfig(ctx, proj, opts)
	elapsed := time.Since(start)

	printer := output.NewPrinter()
	if err != nil {
		printer.PrintError(err)
		writeReports(src, output.Report{Err: err, Elapsed: elapsed})
		return fmt.Errorf("resolving %s failed", path)
	}

	diags := res.Diagnostics
	if cfg.Engine.Analyzers {
		_, engineDiags, err := engine.Default().Select(res.Config)
		if err != nil {
			return err
		}
		diags = append(diags, engineDiags...)
		ruleset.SortDiagnostics(diags)
	}

	if err := res.Config.Encode(os.Stdout, format); err != nil {
		return fmt.Errorf("writing effective config: %w", err)
	}

	if verbose {
		output.LayersSection(os.Stderr, res.Config, src.locations(res.Config.Layers()), elapsed, printer.Color)
	}
	printer.Print(diags)
	if verbose || len(diags) > 0 {
		printer.Summary(diags, len(res.Config.Layers()))
	}

	writeReports(src, output.Report{Layers: res.Config.Layers(), Diagnostics: diags, Elapsed: elapsed})
	return nil
}

// writeReports writes the optional JUnit and metrics files. Failures are
// reported but do not change the exit status.
func writeReports(src *presetSource, r output.Report) {
	if resolveJUnit != "" {
		if err := output.WriteJUnit(resolveJUnit, r); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write junit report: %v\n", err)
		}
	}
	if err := src.writeMetrics(resolveMetrics); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}
