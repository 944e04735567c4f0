package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/rulestack/src/config"
	"github.com/sofmeright/rulestack/src/output"
)

const advisoryProject = `plugins: [go, unused]
ignorePatterns: [dist/]
rules:
  myplugin/foo: warn
  go/printf: [error, {funcs: "logf,warnf"}]
  go/nosuch: warn
`

// setupProject points the command globals at a project in a fresh
// working directory and returns a command with captured output.
func setupProject(t *testing.T) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())
	writeFile(t, ".eslintrc.yml", advisoryProject)

	prevCfg, prevLogger := cfg, logger
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
	cfg = &config.Config{Cache: config.CacheConfig{Enabled: false}}
	logger = output.NewLogger(os.Stderr, "text", "error")

	var stdout, stderr bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	c.SetContext(context.Background())
	return c, &stdout, &stderr
}

func TestRunIgnored_PrintsDiagnostics(t *testing.T) {
	c, stdout, stderr := setupProject(t)
	ignoredProject = ""

	require.NoError(t, runIgnored(c, []string{"dist/app.js", "src/app.js"}))
	require.Equal(t, "ignored   dist/app.js\nincluded  src/app.js\n", stdout.String())
	require.Contains(t, stderr.String(), "unknown-namespace")
	require.Contains(t, stderr.String(), "unused-plugin")
}

func TestRunAnalyzers_PrintsDiagnostics(t *testing.T) {
	c, stdout, stderr := setupProject(t)

	require.NoError(t, runAnalyzers(c, nil))
	require.Contains(t, stdout.String(), "go/printf")
	require.Contains(t, stdout.String(), "funcs=logf,warnf")
	require.Contains(t, stderr.String(), "unknown-namespace")
	require.Contains(t, stderr.String(), "unknown-rule")
}
