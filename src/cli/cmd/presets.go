package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/rulestack/src/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets <ref...>",
	Short: "Show where preset references resolve",
	Long: `Print the kind of each preset reference and the file it resolves to in
the configured preset sources, searched in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	src, err := newPresetSource(cfg, logger)
	if err != nil {
		return err
	}

	failed := 0
	for _, raw := range args {
		ref, err := preset.ParseRef(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", raw, err)
			failed++
			continue
		}
		where, err := src.chain.Locate(raw)
		if err != nil {
			fmt.Fprintf(os.Stdout, "%-40s %-10s %s\n", raw, ref.Kind, "not found")
			logger.Debug("locate failed", "ref", raw, "error", err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "%-40s %-10s %s\n", raw, ref.Kind, where)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d references could not be resolved", failed, len(args))
	}
	return nil
}
